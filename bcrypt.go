package authpage

import (
	"sync/atomic"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

const defaultPasswordHashCost = 14

var passwordHashCost atomic.Int64

func init() {
	passwordHashCost.Store(defaultPasswordHashCost)
}

// SetPasswordHashCost changes the bcrypt cost used by HashPassword. Values
// outside bcrypt's range are ignored.
func SetPasswordHashCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return
	}
	passwordHashCost.Store(int64(cost))
}

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", withSource(ErrNoEmptyString, nil)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), int(passwordHashCost.Load()))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}
	return nil
}
