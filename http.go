package identity

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// Operation identifies which engine entry point raised an error. The
// HTTP rejection category depends on the operation, not on the error
// message: the same domain error maps to different statuses at
// different call sites.
type Operation string

const (
	OpSignUp             Operation = "sign_up"
	OpConfirmEmail       Operation = "confirm_email"
	OpResendConfirmation Operation = "resend_confirmation_email"
	OpLogin              Operation = "login"
	OpRefreshTokens      Operation = "refresh_tokens"
	OpLogout             Operation = "logout"
)

// MapOperationError translates an engine failure into the
// caller-visible rejection for the given operation. Domain errors keep
// their message and gain the operation's status code; anything else is
// masked as an opaque internal error.
func MapOperationError(op Operation, err error) *errors.Error {
	if err == nil {
		return nil
	}

	if !IsDomainError(err) {
		return errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	var richErr *errors.Error
	errors.As(err, &richErr)
	mapped := richErr.Clone()

	switch op {
	case OpSignUp, OpLogout:
		return mapped.WithCode(errors.CodeConflict)
	case OpConfirmEmail, OpResendConfirmation:
		return mapped.WithCode(errors.CodeNotFound)
	case OpLogin, OpRefreshTokens:
		return mapped.WithCode(errors.CodeUnauthorized)
	default:
		return mapped.WithCode(errors.CodeInternal)
	}
}

// RespondOperationError writes the mapped rejection for op as a JSON
// error payload.
func RespondOperationError(ctx router.Context, logger Logger, op Operation, err error) error {
	mapped := MapOperationError(op, err)

	if logger != nil {
		logger.Info(
			"operation error",
			"operation", string(op),
			"error", mapped.Message,
			"category", mapped.Category,
			"details", print.MaybePrettyJSON(mapped.Metadata),
		)
	}

	payload := map[string]any{
		"message": mapped.Message,
	}
	if mapped.TextCode != "" {
		payload["text_code"] = mapped.TextCode
	}

	return ctx.JSON(mapped.Code, payload)
}
