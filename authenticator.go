package identity

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther orchestrates signup, confirmation, login, refresh, and logout
// against the injected store, mailer, and token service. It owns every
// state transition and error classification; recognized domain
// conditions become structured auth errors, anything else propagates
// unchanged.
type Auther struct {
	store        UserStore
	mailer       Mailer
	cfg          Config
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Auther wired to the given
// collaborators. The token service is built from the configured signing
// secrets; override it with WithTokenService.
func NewAuthenticator(store UserStore, mailer Mailer, cfg Config) *Auther {
	return &Auther{
		store:        store,
		mailer:       mailer,
		cfg:          cfg,
		tokenService: NewTokenService(cfg, defLogger{}),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService sets a custom token service.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the token service used by this Auther.
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// SignUp creates an unverified user record and sends the confirmation
// email. A duplicate email surfaces as ErrEmailInUse; a mail delivery
// failure is logged but does not fail the signup or roll the record
// back.
func (s *Auther) SignUp(ctx context.Context, email, fullName, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	fingerprint, err := EmailFingerprint(email)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to derive email fingerprint")
	}

	user, err := s.store.Create(ctx, &User{
		Email:        normalizeEmail(email),
		EmailHash:    fingerprint,
		FullName:     fullName,
		PasswordHash: hash,
	})
	if err != nil {
		if IsConflict(err) {
			return nil, ErrEmailInUse
		}
		return nil, err
	}

	// TODO: decide the mail failure policy. A failed send leaves the
	// account unconfirmable until the user asks for a resend.
	if err := s.sendConfirmationEmail(ctx, user); err != nil {
		s.logger.Warn("confirmation email delivery failed", "email", user.Email, "error", err)
	}

	return user, nil
}

// ConfirmEmail marks the record matching the fingerprint token as
// verified. Confirming an already verified record is a no-op that
// reports success.
func (s *Auther) ConfirmEmail(ctx context.Context, token string) (*User, error) {
	user, err := s.store.GetByEmailFingerprint(ctx, token)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrConfirmationNotFound
		}
		return nil, err
	}

	verified := true
	updated, err := s.store.Update(ctx, user.ID, UserUpdate{EmailVerified: &verified})
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrConfirmationNotFound
		}
		return nil, err
	}

	return updated, nil
}

// ResendConfirmationEmail re-sends the confirmation message after
// re-authenticating the caller. Unknown email and wrong password yield
// the same error so the endpoint cannot be used to enumerate accounts.
func (s *Auther) ResendConfirmationEmail(ctx context.Context, email, password string) error {
	user, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}

	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	return s.sendConfirmationEmail(ctx, user)
}

// Login authenticates the credentials and starts a session: a fresh
// access/refresh pair is minted and the hash of the refresh token is
// stored, invalidating any refresh token issued before this call.
func (s *Auther) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return tokens, nil
}

// RefreshTokens rotates the session: the presented refresh token must
// hash-match the stored value, after which a new pair is minted and the
// stored hash is overwritten. The presented token is unusable once this
// call succeeds, whether or not the caller ever receives the new pair.
//
// Two concurrent calls presenting the same still-valid token can both
// pass the hash check before either overwrites it; single-winner
// rotation needs a compare-and-swap at the storage layer.
func (s *Auther) RefreshTokens(ctx context.Context, userID uuid.UUID, refreshToken string) (*TokenPair, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if !user.HasActiveSession() {
		return nil, ErrInvalidRefreshToken
	}

	if !CompareRefreshSecretAndHash(refreshToken, user.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return tokens, nil
}

// Logout clears the stored refresh hash, ending the session. Access
// tokens already issued remain valid until natural expiry.
func (s *Auther) Logout(ctx context.Context, userID uuid.UUID) error {
	cleared := ""
	if _, err := s.store.Update(ctx, userID, UserUpdate{RefreshTokenHash: &cleared}); err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *Auther) issueTokens(user *User) (*TokenPair, error) {
	accessToken, err := s.tokenService.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenService.IssueRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Auther) storeRefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	hash, err := HashRefreshSecret(refreshToken)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash refresh token")
	}

	_, err = s.store.Update(ctx, userID, UserUpdate{RefreshTokenHash: &hash})
	return err
}

func (s *Auther) sendConfirmationEmail(ctx context.Context, user *User) error {
	return s.mailer.Send(ctx, Message{
		To:       user.Email,
		From:     s.cfg.GetMailSender(),
		Subject:  "Confirm your email address",
		Template: "email-confirmation",
		Context: map[string]any{
			"token": user.EmailHash,
		},
	})
}
