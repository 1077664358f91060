package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// Codec encodes and decodes purpose-scoped JWTs. It consults the
// LifetimePolicy for key selection and expiry on both paths, and normalizes
// every decode failure into the package's auth errors so parsing detail
// never leaks past this boundary.
type Codec struct {
	policy *LifetimePolicy
	logger Logger
}

// NewCodec creates a Codec bound to the given policy.
func NewCodec(policy *LifetimePolicy, logger Logger) *Codec {
	if logger == nil {
		logger = defLogger{}
	}
	return &Codec{
		policy: policy,
		logger: logger,
	}
}

// Encode mints a signed token for subject with the purpose's key and
// lifetime. Issuance time is the wall clock of the call; callers never
// backdate or post-date. Returns the token and its expiration instant.
func (c *Codec) Encode(subject string, purpose TokenPurpose) (string, time.Time, error) {
	key, err := c.policy.SigningKey(purpose)
	if err != nil {
		return "", time.Time{}, err
	}

	ttl, err := c.policy.Lifetime(purpose)
	if err != nil {
		return "", time.Time{}, err
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.policy.Issuer(),
			Subject:   subject,
			Audience:  c.policy.Audience(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Purpose: purpose,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signed, expiresAt, nil
}

// Decode verifies raw against the key for purpose and checks expiry and the
// purpose claim. It returns ErrTokenExpired, ErrBadSignature,
// ErrPurposeMismatch, or ErrTokenMalformed; callers collapse all of these
// into a single "not valid" outcome before anything client-facing.
func (c *Codec) Decode(raw string, purpose TokenPurpose) (*Claims, error) {
	key, err := c.policy.SigningKey(purpose)
	if err != nil {
		return nil, err
	}

	parserOptions := make([]jwt.ParserOption, 0, 2)
	if issuer := c.policy.Issuer(); issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(issuer))
	}
	if audience := c.policy.Audience(); len(audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(audience[0]))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			c.logger.Error("codec encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, parserOptions...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		default:
			return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
				WithTextCode(ErrTokenMalformed.TextCode)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		c.logger.Error("codec could not map token claims")
		return nil, ErrTokenMalformed
	}

	if !claims.HasPurpose(purpose) {
		c.logger.Warn("token purpose claim mismatch, want %s got %s", string(purpose), string(claims.Purpose))
		return nil, ErrPurposeMismatch
	}

	return claims, nil
}
