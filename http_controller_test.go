package identity_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/middleware/jwtware"
)

func newTestController(store identity.UserStore, mailer identity.Mailer) *identity.AuthController {
	auther := identity.NewAuthenticator(store, mailer, newTestConfig()).WithLogger(silentLogger{})
	return identity.NewAuthController(
		identity.WithControllerAuther(auther),
		identity.WithControllerLogger(silentLogger{}),
	)
}

func bindJSONPayload[T any](payload T) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		target, ok := args.Get(0).(*T)
		if ok {
			*target = payload
		}
	}
}

func TestSignUpPost(t *testing.T) {
	t.Run("creates account and reports success", func(t *testing.T) {
		store := new(MockUserStore)
		mailer := new(MockMailer)

		store.On("Create", mock.Anything, mock.Anything).
			Return(&identity.User{ID: uuid.New(), Email: "pepe@rone.com"}, nil)
		mailer.On("Send", mock.Anything, mock.Anything).Return(nil)

		controller := newTestController(store, mailer)

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.Anything).Run(bindJSONPayload(identity.SignUpRequest{
			Email:    "pepe@rone.com",
			FullName: "Pepe Rone",
			Password: "super secret",
		})).Return(nil)
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", fiber.StatusCreated, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.SignUpPost(ctx))
		require.Equal(t, "Sign up completed. An email was sent to you to confirm your email address", payload["message"])
	})

	t.Run("duplicate email responds with conflict", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("Create", mock.Anything, mock.Anything).
			Return(nil, goerrors.New("duplicate email", goerrors.CategoryConflict))

		controller := newTestController(store, new(MockMailer))

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.Anything).Run(bindJSONPayload(identity.SignUpRequest{
			Email:    "pepe@rone.com",
			FullName: "Pepe Rone",
			Password: "super secret",
		})).Return(nil)
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeConflict, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.SignUpPost(ctx))
		require.Equal(t, "A new user cannot be created with this email", payload["message"])
	})

	t.Run("invalid payload responds with bad request", func(t *testing.T) {
		controller := newTestController(new(MockUserStore), new(MockMailer))

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.Anything).Run(bindJSONPayload(identity.SignUpRequest{
			Email:    "not-an-email",
			FullName: "Pepe Rone",
			Password: "short",
		})).Return(nil)
		ctx.On("JSON", fiber.StatusBadRequest, mock.Anything).Return(nil)

		require.NoError(t, controller.SignUpPost(ctx))
		ctx.AssertExpectations(t)
	})
}

func TestConfirmEmailPatch(t *testing.T) {
	t.Run("confirms matching token", func(t *testing.T) {
		store := new(MockUserStore)

		user := &identity.User{ID: uuid.New(), Email: "pepe@rone.com"}
		store.On("GetByEmailFingerprint", mock.Anything, "fingerprint-token").Return(user, nil)
		store.On("Update", mock.Anything, user.ID, mock.Anything).
			Return(&identity.User{ID: user.ID, EmailVerified: true}, nil)

		controller := newTestController(store, new(MockMailer))

		ctx := router.NewMockContext()
		ctx.ParamsM["token"] = "fingerprint-token"
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", fiber.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.ConfirmEmailPatch(ctx))
		require.Equal(t, "Email confirmed", payload["message"])
	})

	t.Run("unknown token responds with not found", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetByEmailFingerprint", mock.Anything, "bogus").Return(nil, notFoundErr())

		controller := newTestController(store, new(MockMailer))

		ctx := router.NewMockContext()
		ctx.ParamsM["token"] = "bogus"
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeNotFound, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.ConfirmEmailPatch(ctx))
		require.Equal(t, "User no found to confirm email", payload["message"])
	})
}

func TestLoginPost(t *testing.T) {
	t.Run("responds with token pair", func(t *testing.T) {
		store := new(MockUserStore)
		user := newVerifiedUser(t, "pepe@rone.com", "super secret")

		store.On("GetByEmail", mock.Anything, "pepe@rone.com").Return(user, nil)
		store.On("Update", mock.Anything, user.ID, mock.Anything).Return(user, nil)

		controller := newTestController(store, new(MockMailer))

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.Anything).Run(bindJSONPayload(identity.LoginRequest{
			Email:    "pepe@rone.com",
			Password: "super secret",
		})).Return(nil)
		ctx.On("Context").Return(context.Background())

		var tokens *identity.TokenPair
		ctx.On("JSON", fiber.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
			tokens = args.Get(1).(*identity.TokenPair)
		}).Return(nil)

		require.NoError(t, controller.LoginPost(ctx))
		require.NotNil(t, tokens)
		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.RefreshToken)
	})

	t.Run("bad credentials respond with unauthorized", func(t *testing.T) {
		store := new(MockUserStore)
		store.On("GetByEmail", mock.Anything, "pepe@rone.com").Return(nil, notFoundErr())

		controller := newTestController(store, new(MockMailer))

		ctx := router.NewMockContext()
		ctx.On("Bind", mock.Anything).Run(bindJSONPayload(identity.LoginRequest{
			Email:    "pepe@rone.com",
			Password: "whatever",
		})).Return(nil)
		ctx.On("Context").Return(context.Background())

		var payload map[string]any
		ctx.On("JSON", goerrors.CodeUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, controller.LoginPost(ctx))
		require.Equal(t, "Invalid email or password", payload["message"])
	})
}

func TestRefreshGet(t *testing.T) {
	store := new(MockUserStore)
	controller := newTestController(store, new(MockMailer))
	auther := controller.Auther

	user := newVerifiedUser(t, "pepe@rone.com", "super secret")

	presented, err := auther.TokenService().IssueRefreshToken(user.ID, user.Email)
	require.NoError(t, err)
	user.RefreshTokenHash, err = identity.HashRefreshSecret(presented)
	require.NoError(t, err)

	claims, err := auther.TokenService().ValidateRefreshToken(presented)
	require.NoError(t, err)

	store.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	store.On("Update", mock.Anything, user.ID, mock.Anything).Return(user, nil)

	ctx := router.NewMockContext()
	ctx.LocalsMock[identity.ClaimsContextKey] = &jwtware.BearerToken{Raw: presented, Claims: claims}
	ctx.On("Context").Return(context.Background())

	var tokens *identity.TokenPair
	ctx.On("JSON", fiber.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		tokens = args.Get(1).(*identity.TokenPair)
	}).Return(nil)

	require.NoError(t, controller.RefreshGet(ctx))
	require.NotNil(t, tokens)
	require.NotEqual(t, presented, tokens.RefreshToken)
}

func TestLogoutGet(t *testing.T) {
	store := new(MockUserStore)
	controller := newTestController(store, new(MockMailer))

	userID := uuid.New()
	store.On("Update", mock.Anything, userID, mock.Anything).Return(&identity.User{ID: userID}, nil)

	claims := &identity.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		Kind:             identity.TokenKindAccess,
	}

	ctx := router.NewMockContext()
	ctx.LocalsMock[identity.ClaimsContextKey] = &jwtware.BearerToken{Raw: "raw-access-token", Claims: claims}
	ctx.On("Context").Return(context.Background())

	var payload map[string]any
	ctx.On("JSON", fiber.StatusOK, mock.Anything).Run(func(args mock.Arguments) {
		payload = args.Get(1).(map[string]any)
	}).Return(nil)

	require.NoError(t, controller.LogoutGet(ctx))
	require.Equal(t, "Logout success", payload["message"])
}

func TestTokenGuards(t *testing.T) {
	t.Run("valid access token reaches the handler", func(t *testing.T) {
		controller := newTestController(new(MockUserStore), new(MockMailer))

		raw, err := controller.Auther.TokenService().IssueAccessToken(uuid.New(), "pepe@rone.com")
		require.NoError(t, err)

		handlerCalled := false
		guard := controller.RequireAccessToken(func(ctx router.Context) error {
			handlerCalled = true
			return nil
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + raw)
		ctx.On("Locals", identity.ClaimsContextKey, mock.AnythingOfType("*jwtware.BearerToken")).Return(nil)

		require.NoError(t, guard(ctx))
		require.True(t, handlerCalled)
	})

	t.Run("missing token is rejected as invalid user", func(t *testing.T) {
		controller := newTestController(new(MockUserStore), new(MockMailer))

		guard := controller.RequireAccessToken(func(ctx router.Context) error {
			t.Fatal("handler must not run without a token")
			return nil
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		var payload map[string]any
		ctx.On("JSON", fiber.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
			payload = args.Get(1).(map[string]any)
		}).Return(nil)

		require.NoError(t, guard(ctx))
		require.Equal(t, "Invalid user", payload["message"])
	})

	t.Run("access token does not pass the refresh guard", func(t *testing.T) {
		controller := newTestController(new(MockUserStore), new(MockMailer))

		raw, err := controller.Auther.TokenService().IssueAccessToken(uuid.New(), "pepe@rone.com")
		require.NoError(t, err)

		guard := controller.RequireRefreshToken(func(ctx router.Context) error {
			t.Fatal("handler must not run for the wrong token kind")
			return nil
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + raw)
		ctx.On("JSON", fiber.StatusUnauthorized, mock.Anything).Return(nil)

		require.NoError(t, guard(ctx))
		ctx.AssertExpectations(t)
	})
}
