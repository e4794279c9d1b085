package authpage

import "context"

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithSessionContext stores session in ctx
func WithSessionContext(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, session)
}

// SessionFromContext returns the session RouteAuthenticator resolved for
// the request that owns ctx.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return nil, false
	}
	session, ok := ctx.Value(sessionCtxKey).(Session)
	return session, ok && session != nil
}
