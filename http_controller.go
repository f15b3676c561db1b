package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity/middleware/jwtware"
	"github.com/goliatone/go-router"
)

// ClaimsContextKey is where the token guards store the validated
// bearer token for downstream handlers.
const ClaimsContextKey = "identity_token"

type AuthControllerRoutes struct {
	SignUp             string
	ConfirmEmail       string
	ResendConfirmation string
	Login              string
	Refresh            string
	Logout             string
}

// AuthController exposes the engine operations over HTTP. Domain
// errors are mapped per operation: signup and logout reject as
// conflict, confirmation flows as not-found, login and refresh as
// unauthorized. Anything else surfaces as an opaque internal error.
type AuthController struct {
	Logger Logger
	Auther *Auther
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			SignUp:             "/auth/signup",
			ConfirmEmail:       "/auth/confirm-email/:token",
			ResendConfirmation: "/auth/resend-confirmation-email",
			Login:              "/auth/login",
			Refresh:            "/auth/refresh",
			Logout:             "/auth/logout",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Auther in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerAuther(auther *Auther) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// RegisterAuthRoutes mounts the auth endpoints on the router and
// returns the controller so callers can reuse its token guards.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.SignUp, controller.SignUpPost).
		SetName("auth.signup")

	app.Patch(controller.Routes.ConfirmEmail, controller.ConfirmEmailPatch).
		SetName("auth.confirm-email")

	app.Post(controller.Routes.ResendConfirmation, controller.ResendConfirmationPost).
		SetName("auth.resend-confirmation")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.Get(controller.Routes.Refresh, controller.RequireRefreshToken(controller.RefreshGet)).
		SetName("auth.refresh")

	app.Get(controller.Routes.Logout, controller.RequireAccessToken(controller.LogoutGet)).
		SetName("auth.logout")

	return controller
}

// SignUpRequest payload
type SignUpRequest struct {
	Email    string `form:"email" json:"email"`
	FullName string `form:"full_name" json:"full_name"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

// LoginRequest payload, shared by login and resend-confirmation.
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) SignUpPost(ctx router.Context) error {
	payload := new(SignUpRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, err)
	}

	if _, err := a.Auther.SignUp(ctx.Context(), payload.Email, payload.FullName, payload.Password); err != nil {
		return RespondOperationError(ctx, a.Logger, OpSignUp, err)
	}

	return ctx.JSON(fiber.StatusCreated, map[string]any{
		"message": "Sign up completed. An email was sent to you to confirm your email address",
	})
}

func (a *AuthController) ConfirmEmailPatch(ctx router.Context) error {
	token := ctx.Param("token")

	if _, err := a.Auther.ConfirmEmail(ctx.Context(), token); err != nil {
		return RespondOperationError(ctx, a.Logger, OpConfirmEmail, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Email confirmed",
	})
}

func (a *AuthController) ResendConfirmationPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, err)
	}

	if err := a.Auther.ResendConfirmationEmail(ctx.Context(), payload.Email, payload.Password); err != nil {
		return RespondOperationError(ctx, a.Logger, OpResendConfirmation, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Email sent",
	})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.badRequest(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.badRequest(ctx, err)
	}

	tokens, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return RespondOperationError(ctx, a.Logger, OpLogin, err)
	}

	return ctx.JSON(fiber.StatusOK, tokens)
}

func (a *AuthController) RefreshGet(ctx router.Context) error {
	bearer, err := a.guardedToken(ctx)
	if err != nil {
		return RespondOperationError(ctx, a.Logger, OpRefreshTokens, err)
	}

	userID, err := bearer.Claims.UserID()
	if err != nil {
		return RespondOperationError(ctx, a.Logger, OpRefreshTokens, ErrInvalidRefreshToken)
	}

	tokens, err := a.Auther.RefreshTokens(ctx.Context(), userID, bearer.Raw)
	if err != nil {
		return RespondOperationError(ctx, a.Logger, OpRefreshTokens, err)
	}

	return ctx.JSON(fiber.StatusOK, tokens)
}

func (a *AuthController) LogoutGet(ctx router.Context) error {
	bearer, err := a.guardedToken(ctx)
	if err != nil {
		return RespondOperationError(ctx, a.Logger, OpLogout, err)
	}

	userID, err := bearer.Claims.UserID()
	if err != nil {
		return RespondOperationError(ctx, a.Logger, OpLogout, ErrTokenMalformed)
	}

	if err := a.Auther.Logout(ctx.Context(), userID); err != nil {
		return RespondOperationError(ctx, a.Logger, OpLogout, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": "Logout success",
	})
}

// RequireAccessToken guards a route behind a valid access token.
func (a *AuthController) RequireAccessToken(next router.HandlerFunc) router.HandlerFunc {
	return a.requireToken(OpLogout, a.Auther.TokenService().ValidateAccessToken, next)
}

// RequireRefreshToken guards a route behind a structurally valid
// refresh token. Hash-match against the stored session is still the
// engine's job.
func (a *AuthController) RequireRefreshToken(next router.HandlerFunc) router.HandlerFunc {
	return a.requireToken(OpRefreshTokens, a.Auther.TokenService().ValidateRefreshToken, next)
}

func (a *AuthController) requireToken(op Operation, validate func(string) (*TokenClaims, error), next router.HandlerFunc) router.HandlerFunc {
	return jwtware.New(jwtware.Config{
		ContextKey:     ClaimsContextKey,
		SuccessHandler: next,
		ErrorHandler: func(ctx router.Context, err error) error {
			return a.guardReject(ctx, op, err)
		},
		Validator: func(raw string) (jwtware.Claims, error) {
			claims, err := validate(raw)
			if err != nil {
				return nil, err
			}
			return claims, nil
		},
	})
}

type guardedBearer struct {
	Raw    string
	Claims *TokenClaims
}

func (a *AuthController) guardedToken(ctx router.Context) (*guardedBearer, error) {
	raw := ctx.Locals(ClaimsContextKey)
	if raw == nil {
		return nil, ErrTokenMalformed
	}

	bearer, ok := raw.(*jwtware.BearerToken)
	if !ok {
		return nil, ErrTokenMalformed
	}

	claims, ok := bearer.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	return &guardedBearer{Raw: bearer.Raw, Claims: claims}, nil
}

// guardReject handles token guard failures. A missing or invalid
// bearer token is always an unauthorized rejection, whatever the
// operation behind the guard.
func (a *AuthController) guardReject(ctx router.Context, op Operation, err error) error {
	a.Logger.Info("token guard rejected request", "operation", string(op), "error", err)
	return ctx.JSON(fiber.StatusUnauthorized, map[string]any{
		"message": "Invalid user",
	})
}

func (a *AuthController) badRequest(ctx router.Context, err error) error {
	a.Logger.Error("auth controller payload error", "error", err)
	return ctx.JSON(fiber.StatusBadRequest, map[string]any{
		"message": err.Error(),
		"code":    errors.CodeBadRequest,
	})
}
