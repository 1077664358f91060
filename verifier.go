package credentials

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Verifier orchestrates credential checks: login, token-based identity
// resolution, refresh, password reset, and re-authenticated email changes.
// It holds no mutable state of its own; every operation is a pure function
// of its inputs, the signing keys, and the clock, so concurrent use needs
// no synchronization.
type Verifier struct {
	directory Directory
	policy    *LifetimePolicy
	codec     *Codec
	notifier  Notifier
	logger    Logger
	decoyHash string
}

// NewVerifier returns a Verifier bound to the directory. It fails when cfg
// is missing a signing key.
func NewVerifier(directory Directory, cfg Config) (*Verifier, error) {
	policy, err := NewLifetimePolicy(cfg)
	if err != nil {
		return nil, err
	}

	return &Verifier{
		directory: directory,
		policy:    policy,
		codec:     NewCodec(policy, defLogger{}),
		notifier:  noopNotifier{},
		logger:    defLogger{},
		decoyHash: RandomPasswordHash(),
	}, nil
}

// WithLogger overrides the logger used by the verifier and its codec.
func (v *Verifier) WithLogger(logger Logger) *Verifier {
	if logger != nil {
		v.logger = logger
		v.codec = NewCodec(v.policy, logger)
	}
	return v
}

// WithNotifier configures the out-of-band channel reset tokens are
// delivered through.
func (v *Verifier) WithNotifier(notifier Notifier) *Verifier {
	v.notifier = normalizeNotifier(notifier)
	return v
}

// Codec returns the token codec this verifier issues and decodes with.
func (v *Verifier) Codec() *Codec {
	return v.codec
}

// Authenticate checks the email/password pair and on success issues an
// access and a refresh token, both bearing the account's email as subject.
// Unknown email and wrong password yield the identical ErrInvalidCredentials
// outcome; a decoy hash comparison keeps the two paths' latency profiles
// aligned.
func (v *Verifier) Authenticate(ctx context.Context, email, password string) (*TokenPair, error) {
	account, err := v.directory.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			ComparePasswordAndHash(password, v.decoyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during authentication")
	}

	if !account.CanAuthenticate() {
		v.logger.Warn("login blocked for inactive account: %s", email)
		ComparePasswordAndHash(password, v.decoyHash)
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	access, accessExpires, err := v.codec.Encode(account.Identifier(), PurposeAccess)
	if err != nil {
		return nil, err
	}

	refresh, _, err := v.codec.Encode(account.Identifier(), PurposeRefresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		TokenType:       "bearer",
		AccessExpiresAt: accessExpires,
	}, nil
}

// ResolveIdentity decodes raw with the key and claim checks for purpose and
// resolves the subject to a live account. Any decode failure, a missing
// account, or an inactive account collapses into ErrUnauthenticated; a token
// referencing a deleted or renamed account is never trusted.
func (v *Verifier) ResolveIdentity(ctx context.Context, raw string, purpose TokenPurpose) (*Account, error) {
	claims, err := v.codec.Decode(raw, purpose)
	if err != nil {
		v.logger.Debug("token rejected, purpose %s: %s", string(purpose), err)
		return nil, ErrUnauthenticated
	}

	return v.IdentityFromClaims(ctx, claims)
}

// IdentityFromClaims resolves already verified claims, such as the ones the
// token middleware stores in the request context, to a live account. A
// missing or inactive account collapses into ErrUnauthenticated.
func (v *Verifier) IdentityFromClaims(ctx context.Context, claims *Claims) (*Account, error) {
	if claims == nil {
		return nil, ErrUnauthenticated
	}

	account, err := v.directory.GetByEmail(ctx, claims.Email())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve token subject")
	}

	if !account.CanAuthenticate() {
		return nil, ErrUnauthenticated
	}

	return account, nil
}

// RefreshAccess resolves the refresh token and mints a new access token for
// its subject. The refresh token is not consumed or rotated: it stays valid
// until its own expiry, so multiple access tokens may be minted from one
// refresh token across its lifetime. The returned pair echoes the presented
// refresh token.
func (v *Verifier) RefreshAccess(ctx context.Context, refreshToken string) (*TokenPair, error) {
	account, err := v.ResolveIdentity(ctx, refreshToken, PurposeRefresh)
	if err != nil {
		return nil, err
	}

	access, accessExpires, err := v.codec.Encode(account.Identifier(), PurposeAccess)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    refreshToken,
		TokenType:       "bearer",
		AccessExpiresAt: accessExpires,
	}, nil
}

// RequestPasswordReset mints a reset token and hands it to the notifier when
// the email belongs to an account, and does nothing otherwise. Both branches
// return nil; the caller-visible outcome never reveals whether the email is
// registered.
func (v *Verifier) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := v.directory.GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account for password reset")
	}

	if !account.CanAuthenticate() {
		return nil
	}

	token, _, err := v.codec.Encode(account.Identifier(), PurposeReset)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to issue password reset token")
	}

	if err := normalizeNotifier(v.notifier).Deliver(ctx, account.Email, token); err != nil {
		// delivery is fire-and-forget; a broken channel must not change
		// the generic response
		v.logger.Warn("reset notifier delivery error: %s", err)
	}

	return nil
}

// RedeemPasswordReset decodes the reset token, hashes the new password, and
// persists it through the directory. The account must log in again
// afterwards; no tokens are issued here.
func (v *Verifier) RedeemPasswordReset(ctx context.Context, raw, newPassword string) error {
	claims, err := v.codec.Decode(raw, PurposeReset)
	if err != nil {
		v.logger.Debug("reset token rejected: %s", err)
		return ErrInvalidResetToken
	}

	account, err := v.directory.GetByEmail(ctx, claims.Email())
	if err != nil {
		if isNotFound(err) {
			return ErrAccountNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to resolve reset token subject")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid new password provided")
	}

	if err := v.directory.ResetPassword(ctx, account.ID, hash); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist new password")
	}

	return nil
}

// ChangeEmail requires re-proof of the current password before permitting an
// email change; a stale access token alone is not enough for sensitive-field
// updates. Duplicate emails fail with ErrEmailConflict, including late
// storage-layer races the pre-check cannot see.
func (v *Verifier) ChangeEmail(ctx context.Context, account *Account, currentPassword, newEmail string) (*Account, error) {
	if account == nil {
		return nil, ErrAccountNotFound
	}

	if err := ComparePasswordAndHash(currentPassword, account.PasswordHash); err != nil {
		return nil, ErrWrongPassword
	}

	if existing, err := v.directory.GetByEmail(ctx, newEmail); err == nil && existing != nil && existing.ID != account.ID {
		return nil, ErrEmailConflict
	} else if err != nil && !isNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email availability")
	}

	updated, err := v.directory.UpdateEmail(ctx, account.ID, newEmail)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryConflict {
			return nil, ErrEmailConflict
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist email change")
	}

	return updated, nil
}

func isNotFound(err error) bool {
	return errors.IsNotFound(err) || repository.IsRecordNotFound(err)
}
