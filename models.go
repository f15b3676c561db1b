package identity

import (
	"strings"
	"time"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted credential record.
//
// email and email_hash are unique across all records. password_hash is
// never empty for an existing record. refresh_token_hash is either
// empty or matches exactly one still-valid refresh token.
type User struct {
	bun.BaseModel    `bun:"table:users,alias:usr"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName         string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	EmailHash        string     `bun:"email_hash,notnull,unique" json:"-"`
	PasswordHash     string     `bun:"password_hash,notnull" json:"-"`
	EmailVerified    bool       `bun:"is_email_verified" json:"is_email_verified"`
	RefreshTokenHash string     `bun:"refresh_token_hash" json:"-"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasActiveSession reports whether the record currently holds a
// refresh-token hash.
func (u *User) HasActiveSession() bool {
	return u != nil && u.RefreshTokenHash != ""
}

// EmailFingerprint derives the deterministic, non-reversible lookup key
// for an email address. The same address always maps to the same
// fingerprint, so it doubles as the confirmation token without exposing
// the address itself.
func EmailFingerprint(email string) (string, error) {
	id, err := hashid.NewUUID(normalizeEmail(email))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
