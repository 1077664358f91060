package credentials

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger is the minimal logging surface the package needs. glog and slog
// style loggers adapt to it trivially.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenPurpose identifies the intended use of a token. It determines which
// signing key and lifetime apply, and is embedded as an explicit claim.
type TokenPurpose string

const (
	// PurposeAccess scopes short-lived tokens that authorize API requests.
	PurposeAccess TokenPurpose = "access"
	// PurposeRefresh scopes long-lived tokens that can mint new access tokens.
	PurposeRefresh TokenPurpose = "refresh"
	// PurposeReset scopes single-flow tokens that authorize a password reset.
	PurposeReset TokenPurpose = "password_reset"
)

// TokenPair is issued on successful authentication.
type TokenPair struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// Directory is the user-lookup/persist boundary the verifier consumes. The
// Accounts repository satisfies it; alternative directories (LDAP, remote
// user services) can be plugged in without touching the core.
type Directory interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Register(ctx context.Context, account *Account) (*Account, error)
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, newEmail string) (*Account, error)
}

// Notifier delivers a password reset token out-of-band, e.g. email. Delivery
// is fire-and-forget: a failing notifier never changes the generic response
// of a reset request.
type Notifier interface {
	Deliver(ctx context.Context, email, resetToken string) error
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, email, resetToken string) error

// Deliver satisfies the Notifier interface.
func (f NotifierFunc) Deliver(ctx context.Context, email, resetToken string) error {
	if f == nil {
		return nil
	}
	return f(ctx, email, resetToken)
}

// Config holds token issuance options. Signing keys are required; lifetimes
// and issuer/audience fall back to defaults when zero.
type Config interface {
	GetSigningKey() string
	GetRefreshSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetIssuer() string
	GetAudience() []string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CREDS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CREDS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CREDS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CREDS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
