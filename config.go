package credentials

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// TokenConfig is a concrete Config. Signing keys come from externally
// managed secrets; never hard-code them. Zero lifetimes fall back to the
// package defaults.
type TokenConfig struct {
	SigningKey        string        `json:"-"`
	RefreshSigningKey string        `json:"-"`
	AccessTokenTTL    time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `json:"refresh_token_ttl"`
	ResetTokenTTL     time.Duration `json:"reset_token_ttl"`
	Issuer            string        `json:"issuer"`
	Audience          []string      `json:"audience"`
}

var _ Config = TokenConfig{}

// Validate will run validation rules. Call it at startup; a missing key is
// a configuration error, not a runtime condition.
func (c TokenConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.SigningKey,
			validation.Required,
			validation.Length(32, 0),
		),
		validation.Field(
			&c.RefreshSigningKey,
			validation.Required,
			validation.Length(32, 0),
		),
		validation.Field(&c.AccessTokenTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.RefreshTokenTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.ResetTokenTTL, validation.Min(time.Duration(0))),
	)
}

func (c TokenConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c TokenConfig) GetRefreshSigningKey() string {
	return c.RefreshSigningKey
}

func (c TokenConfig) GetAccessTokenTTL() time.Duration {
	return c.AccessTokenTTL
}

func (c TokenConfig) GetRefreshTokenTTL() time.Duration {
	return c.RefreshTokenTTL
}

func (c TokenConfig) GetResetTokenTTL() time.Duration {
	return c.ResetTokenTTL
}

func (c TokenConfig) GetIssuer() string {
	return c.Issuer
}

func (c TokenConfig) GetAudience() []string {
	return c.Audience
}
