package authpage_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authpage "github.com/goliatone/go-authpage"
	"github.com/stretchr/testify/assert"
)

func TestJWTClaims_Subject(t *testing.T) {
	claims := &authpage.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "user123",
		},
	}

	assert.Equal(t, "user123", claims.Subject())
}

func TestJWTClaims_UserID(t *testing.T) {
	t.Run("returns UID when present", func(t *testing.T) {
		claims := &authpage.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user123",
			},
			UID: "uid456",
		}

		assert.Equal(t, "uid456", claims.UserID())
	})

	t.Run("fallback to subject when UID is empty", func(t *testing.T) {
		claims := &authpage.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject: "user123",
			},
		}

		assert.Equal(t, "user123", claims.UserID())
	})
}

func TestJWTClaims_Expires(t *testing.T) {
	t.Run("returns expiration time when set", func(t *testing.T) {
		expTime := time.Now().Add(time.Hour)
		claims := &authpage.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(expTime),
			},
		}

		result := claims.Expires()
		assert.WithinDuration(t, expTime, result, time.Second)
	})

	t.Run("returns zero time when not set", func(t *testing.T) {
		claims := &authpage.JWTClaims{}

		result := claims.Expires()
		assert.True(t, result.IsZero())
	})
}

func TestJWTClaims_IssuedAt(t *testing.T) {
	t.Run("returns issued at time when set", func(t *testing.T) {
		issuedTime := time.Now()
		claims := &authpage.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt: jwt.NewNumericDate(issuedTime),
			},
		}

		result := claims.IssuedAt()
		assert.WithinDuration(t, issuedTime, result, time.Second)
	})

	t.Run("returns zero time when not set", func(t *testing.T) {
		claims := &authpage.JWTClaims{}

		result := claims.IssuedAt()
		assert.True(t, result.IsZero())
	})
}
