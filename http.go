package authpage

import (
	"context"
	"time"

	"github.com/goliatone/go-authpage/middleware/sessionware"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator binds an Authenticator to router requests: it owns the
// session cookie, which is the store the redirect guard reads from.
type RouteAuthenticator struct {
	auth           Authenticator
	cfg            Config
	cookieDuration time.Duration
	Logger         Logger
	SecureCookie   bool
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) *RouteAuthenticator {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	return &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		Logger:         defaultLogger(),
		cookieDuration: cookieDuration,
		SecureCookie:   true,
	}
}

func (a *RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a *RouteAuthenticator) contextKey() string {
	return a.cfg.GetContextKey()
}

// LoadSession resolves the session cookie into Locals when present. Requests
// without a valid cookie continue anonymously.
func (a *RouteAuthenticator) LoadSession() router.MiddlewareFunc {
	return sessionware.New(sessionware.Config{
		ContextKey:     a.contextKey(),
		TokenLookup:    "cookie:" + a.contextKey(),
		Optional:       true,
		SuccessHandler: a.attachSession,
		Resolver: func(token string) (any, error) {
			return a.auth.SessionFromToken(token)
		},
	})
}

// ProtectedRoute requires a session, sending anonymous visitors to loginRoute
func (a *RouteAuthenticator) ProtectedRoute(loginRoute string) router.MiddlewareFunc {
	return sessionware.New(sessionware.Config{
		ContextKey:     a.contextKey(),
		TokenLookup:    "cookie:" + a.contextKey(),
		SuccessHandler: a.attachSession,
		Resolver: func(token string) (any, error) {
			return a.auth.SessionFromToken(token)
		},
		ErrorHandler: func(ctx router.Context, err error) error {
			a.Logger.Info("protected route without session, redirecting", "path", ctx.OriginalURL(), "error", err)
			return ctx.Redirect(loginRoute, router.StatusFound)
		},
	})
}

func (a *RouteAuthenticator) attachSession(ctx router.Context) error {
	if session, err := GetSession(ctx, a.contextKey()); err == nil {
		ctx.Locals("user_id", session.GetUserID())
		ctx.SetContext(WithSessionContext(ctx.Context(), session))
	}
	return ctx.Next()
}

// SessionID is the session identifier of the current request, empty when
// anonymous.
func (a *RouteAuthenticator) SessionID(ctx router.Context) string {
	session, err := GetSession(ctx, a.contextKey())
	if err != nil {
		return ""
	}
	return session.GetUserID()
}

// Action returns the authenticate action for the current request. On
// success it stores the session cookie and makes the session visible to
// the rest of the request. Failures are logged and returned to the caller.
func (a *RouteAuthenticator) Action(ctx router.Context) AuthenticateFunc {
	return func(c context.Context, email, username, password string, pageContext PageContext) error {
		token, err := a.auth.Authenticate(c, email, username, password, pageContext)
		if err != nil {
			a.Logger.Warn("authenticate failed", "context", pageContext, "username", username, "error", err)
			return err
		}

		session, err := a.auth.SessionFromToken(token)
		if err != nil {
			a.Logger.Error("authenticate issued an unreadable token", "error", err)
			return err
		}

		a.setCookieToken(ctx, token, a.cookieDuration)
		ctx.Locals(a.contextKey(), session)
		ctx.SetContext(WithSessionContext(ctx.Context(), session))
		a.Logger.Info("authenticated", "context", pageContext, "user_id", session.GetUserID())
		return nil
	}
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.contextKey())
	ctx.Locals(a.contextKey(), nil)
	ctx.SetContext(WithSessionContext(ctx.Context(), nil))
}

func (a *RouteAuthenticator) setCookieToken(ctx router.Context, val string, duration time.Duration) {
	ctx.Cookie(&router.Cookie{
		Name:     a.contextKey(),
		Value:    val,
		Path:     "/",
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   a.SecureCookie,
		SameSite: router.CookieSameSiteLaxMode,
	})
}

func (a *RouteAuthenticator) cookieDel(ctx router.Context, name string) {
	ctx.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.SecureCookie,
		SameSite: router.CookieSameSiteLaxMode,
	})
}

// GetSession returns the session LoadSession stored under key
func GetSession(ctx router.Context, key string) (Session, error) {
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, ErrUnableToFindSession
	}

	session, ok := raw.(Session)
	if !ok || session == nil {
		return nil, ErrUnableToDecodeSession
	}
	return session, nil
}
