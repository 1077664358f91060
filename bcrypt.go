package credentials

import (
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash. Each call salts independently,
// so two hashes of the same password never compare equal; use
// ComparePasswordAndHash, never string equality.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. The comparison is constant time within bcrypt.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		// corrupt or truncated digest; surface as the same generic outcome
		// but keep the cause for logs
		return errors.Wrap(err, ErrInvalidCredentials.Category, ErrInvalidCredentials.Message).
			WithTextCode(ErrInvalidCredentials.TextCode)
	}
	return nil
}

// VerifyPassword reports whether password matches hash. Malformed digests
// verify false rather than raising.
func VerifyPassword(password, hash string) bool {
	return ComparePasswordAndHash(password, hash) == nil
}

// RandomPasswordHash is an unguessable placeholder hash. The verifier burns
// a compare against it when an email is unknown so that login latency does
// not reveal whether the account exists.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
