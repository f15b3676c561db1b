package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetAccessSigningKey() string
	GetAccessTokenDuration() time.Duration
	GetRefreshSigningKey() string
	GetRefreshTokenDuration() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetMailSender() string
}

// TokenService mints and validates the two token kinds. Each kind has
// its own signing secret and lifetime.
type TokenService interface {
	IssueAccessToken(id uuid.UUID, email string) (string, error)
	IssueRefreshToken(id uuid.UUID, email string) (string, error)
	ValidateAccessToken(raw string) (*TokenClaims, error)
	ValidateRefreshToken(raw string) (*TokenClaims, error)
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserUpdate carries the mutable fields of a user record. Nil fields
// are left untouched by the store.
type UserUpdate struct {
	EmailVerified    *bool
	RefreshTokenHash *string
}

// UserStore is the persistence contract the engine depends on.
//
// The lookup methods report a missing record as a structured not-found
// error. Create fails with a conflict error when the email is already
// registered; Update fails with a not-found error when the id does not
// exist. Any other failure is infrastructure and is passed through
// untouched by the engine.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailFingerprint(ctx context.Context, fingerprint string) (*User, error)
	Create(ctx context.Context, record *User) (*User, error)
	Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error)
}

// Message is an outbound mail payload.
type Message struct {
	To       string
	From     string
	Subject  string
	Template string
	Context  map[string]any
}

// Mailer delivers notification emails. The engine treats delivery as
// fire-and-forget: a send failure is logged, never folded into user
// state.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
