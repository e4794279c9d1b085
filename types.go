package authpage

import (
	"context"
	"time"
)

// Logger is the logging surface used across the package. Args are
// key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// AuthenticateFunc is the authenticate action dispatched by the form once
// the submit delay elapses. Its outcome belongs to the caller that owns the
// session, the form never inspects it.
type AuthenticateFunc func(ctx context.Context, email, username, password string, pageContext PageContext) error

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetData() map[string]any
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// Authenticator resolves credentials into signed session tokens
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	Register(ctx context.Context, email, username, password string) (string, error)
	Authenticate(ctx context.Context, email, username, password string, pageContext PageContext) (string, error)
	SessionFromToken(token string) (Session, error)
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetSubmitDelay() time.Duration
}
