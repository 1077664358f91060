package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// Default lifetimes per token purpose. Overridable through Config.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultResetTokenTTL   = 10 * time.Minute
)

// LifetimePolicy is the single purpose -> (signing key, lifetime) table.
// Issuance and verification both read it, so changing an expiry window or
// rotating a key cannot desynchronize the two paths.
type LifetimePolicy struct {
	keys      map[TokenPurpose][]byte
	lifetimes map[TokenPurpose]time.Duration
	issuer    string
	audience  jwt.ClaimStrings
}

// NewLifetimePolicy builds the policy table from cfg. It fails fast when a
// required signing key is absent; a process missing key material must not
// come up able to mint unverifiable credentials.
func NewLifetimePolicy(cfg Config) (*LifetimePolicy, error) {
	signingKey := cfg.GetSigningKey()
	refreshKey := cfg.GetRefreshSigningKey()

	if signingKey == "" {
		return nil, errors.Wrap(ErrMissingSigningKey, errors.CategoryValidation, "signing key is required")
	}

	if refreshKey == "" {
		return nil, errors.Wrap(ErrMissingSigningKey, errors.CategoryValidation, "refresh signing key is required")
	}

	accessTTL := cfg.GetAccessTokenTTL()
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}

	refreshTTL := cfg.GetRefreshTokenTTL()
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}

	resetTTL := cfg.GetResetTokenTTL()
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}

	var aud jwt.ClaimStrings
	if audience := cfg.GetAudience(); len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &LifetimePolicy{
		keys: map[TokenPurpose][]byte{
			PurposeAccess:  []byte(signingKey),
			PurposeRefresh: []byte(refreshKey),
			// reset shares the primary key; purpose claim keeps the two
			// token types from impersonating each other
			PurposeReset: []byte(signingKey),
		},
		lifetimes: map[TokenPurpose]time.Duration{
			PurposeAccess:  accessTTL,
			PurposeRefresh: refreshTTL,
			PurposeReset:   resetTTL,
		},
		issuer:   cfg.GetIssuer(),
		audience: aud,
	}, nil
}

// SigningKey returns the key material for the given purpose.
func (p *LifetimePolicy) SigningKey(purpose TokenPurpose) ([]byte, error) {
	key, ok := p.keys[purpose]
	if !ok {
		return nil, errors.New("unknown token purpose", errors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}
	return key, nil
}

// Lifetime returns the expiry window for the given purpose.
func (p *LifetimePolicy) Lifetime(purpose TokenPurpose) (time.Duration, error) {
	ttl, ok := p.lifetimes[purpose]
	if !ok {
		return 0, errors.New("unknown token purpose", errors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}
	return ttl, nil
}

// Issuer returns the configured issuer claim, possibly empty.
func (p *LifetimePolicy) Issuer() string {
	return p.issuer
}

// Audience returns a copy of the configured audience claim.
func (p *LifetimePolicy) Audience() jwt.ClaimStrings {
	if len(p.audience) == 0 {
		return nil
	}
	aud := make(jwt.ClaimStrings, len(p.audience))
	copy(aud, p.audience)
	return aud
}
