package credentials

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload embedded in every issued token: subject (the
// account's email), expiration, and an explicit purpose claim. Claims are
// immutable once issued; a token is never mutated, only re-issued.
type Claims struct {
	jwt.RegisteredClaims
	Purpose TokenPurpose `json:"purpose,omitempty"`
}

// Email returns the subject, the identity key every token asserts.
func (c *Claims) Email() string {
	return c.RegisteredClaims.Subject
}

// Expires returns the expiration instant, or zero when unset.
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedTime returns the issuance instant, or zero when unset.
func (c *Claims) IssuedTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// HasPurpose reports whether the claims carry the given purpose.
func (c *Claims) HasPurpose(purpose TokenPurpose) bool {
	return c.Purpose == purpose
}

// TokenID returns the unique identifier minted into every token. A future
// revocation plug-in would key its denylist on this value.
func (c *Claims) TokenID() string {
	return c.RegisteredClaims.ID
}

func ensureTokenID(rc *jwt.RegisteredClaims) {
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}
}
