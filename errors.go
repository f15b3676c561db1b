package identity

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmailInUse           = "identity_email_in_use"
	TextCodeConfirmationNotFound = "identity_confirmation_not_found"
	TextCodeInvalidCredentials   = "identity_invalid_credentials"
	TextCodeEmailNotVerified     = "identity_email_not_verified"
	TextCodeAlreadyVerified      = "identity_already_verified"
	TextCodeInvalidRefreshToken  = "identity_invalid_refresh_token"
	TextCodeUserNotFound         = "identity_user_not_found"
	TextCodeTokenExpired         = "identity_token_expired"
	TextCodeTokenMalformed       = "identity_token_malformed"
	TextCodeEmptySecret          = "identity_empty_secret"
)

// ErrEmailInUse is returned when signup hits an already registered email.
// The message mirrors the store's conflict contract.
var ErrEmailInUse = errors.New("A new user cannot be created with this email", errors.CategoryConflict).
	WithTextCode(TextCodeEmailInUse).
	WithCode(errors.CodeConflict)

// ErrConfirmationNotFound is returned when a confirmation token matches
// no record.
var ErrConfirmationNotFound = errors.New("User no found to confirm email", errors.CategoryNotFound).
	WithTextCode(TextCodeConfirmationNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials is returned for an unknown email or a password
// mismatch. Same message for both so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("Invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned on login before the email was confirmed.
var ErrEmailNotVerified = errors.New("Not verified email", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeUnauthorized)

// ErrAlreadyVerified is returned when resending confirmation for a
// verified record.
var ErrAlreadyVerified = errors.New("Already verified email", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(errors.CodeConflict)

// ErrInvalidRefreshToken covers every refresh rejection: unknown user,
// no active session, or a secret that does not match the stored hash.
var ErrInvalidRefreshToken = errors.New("Invalid refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidRefreshToken).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when logout targets a missing record.
var ErrUserNotFound = errors.New("User not found to update", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned when a signed token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token fails signature or shape
// validation.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty secrets before hashing.
var ErrNoEmptyString = errors.New("refusing to hash an empty secret", errors.CategoryValidation).
	WithTextCode(TextCodeEmptySecret).
	WithCode(errors.CodeBadRequest)

// IsDomainError reports whether err is one of the expected
// business-rule failures this package raises: a structured error
// carrying an auth, not-found, or conflict category. Infrastructure
// failures never satisfy it and must propagate unchanged.
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return false
	}

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryNotFound, errors.CategoryConflict:
		return true
	default:
		return false
	}
}

// IsConflict reports whether err represents a storage-level uniqueness
// conflict such as a duplicate email.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryConflict
	}

	return false
}
