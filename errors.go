package credentials

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds      = "invalid_credentials"
	TextCodeUnauthenticated   = "unauthenticated"
	TextCodeTokenExpired      = "token_expired"
	TextCodeTokenMalformed    = "token_malformed"
	TextCodeBadSignature      = "token_bad_signature"
	TextCodePurposeMismatch   = "token_purpose_mismatch"
	TextCodeInvalidResetToken = "invalid_reset_token"
	TextCodeAccountNotFound   = "account_not_found"
	TextCodeWrongPassword     = "wrong_password"
	TextCodeEmailConflict     = "email_conflict"
	TextCodeEmptyPassword     = "empty_password"
	TextCodeMissingSigningKey = "missing_signing_key"
)

// ErrInvalidCredentials is the single outcome for a failed login. It covers
// both "no such account" and "wrong password" so callers cannot enumerate
// registered emails.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is the single outcome for a token that cannot be
// trusted: missing, malformed, expired, wrong purpose, or referencing an
// account that no longer exists.
var ErrUnauthenticated = errors.New("could not authenticate request", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token's expiration instant has passed.
// Diagnostics only; callers collapse it into ErrUnauthenticated.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed at all.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrBadSignature is returned when a token's signature does not verify
// against the key for the purpose attempting to consume it.
var ErrBadSignature = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeBadSignature).
	WithCode(errors.CodeUnauthorized)

// ErrPurposeMismatch is returned when a token's purpose claim does not match
// the purpose it is being consumed for, even if the signature verifies.
var ErrPurposeMismatch = errors.New("token purpose mismatch", errors.CategoryAuth).
	WithTextCode(TextCodePurposeMismatch).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidResetToken is returned when redeeming a password reset with a
// token that does not decode under the reset purpose.
var ErrInvalidResetToken = errors.New("invalid or expired password reset token", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidResetToken).
	WithCode(errors.CodeBadRequest)

// ErrAccountNotFound is returned when a validly decoded token references an
// account that no longer exists, e.g. deleted after the token was issued.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrWrongPassword is returned when a sensitive update fails its password
// re-proof.
var ErrWrongPassword = errors.New("current password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeWrongPassword).
	WithCode(errors.CodeBadRequest)

// ErrEmailConflict is returned when an email is already owned by another
// account, on create or update, including late storage-layer races. The HTTP
// surface reports it as a plain 400.
var ErrEmailConflict = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailConflict).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when asked to hash an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMissingSigningKey is returned at construction time when a required
// signing key is absent. Fail fast; never issue unsigned credentials.
var ErrMissingSigningKey = errors.New("required signing key is not configured", errors.CategoryValidation).
	WithTextCode(TextCodeMissingSigningKey).
	WithCode(errors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
