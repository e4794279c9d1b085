package authpage

import "strings"

// Routes is the table of named destinations the auth page links to.
type Routes struct {
	Login    string
	Register string
	Notes    string
	Logout   string
	Validate string
}

// DefaultRoutes returns the routes used when none are configured
func DefaultRoutes() Routes {
	return Routes{
		Login:    "/login",
		Register: "/register",
		Notes:    "/notes",
		Logout:   "/logout",
		Validate: "/auth/:context/validate/:field",
	}
}

// ForContext returns the page route for login and register. Other contexts
// have no page of their own.
func (r Routes) ForContext(pc PageContext) (string, bool) {
	switch pc {
	case ContextLogin:
		return r.Login, true
	case ContextRegister:
		return r.Register, true
	}
	return "", false
}

// ValidateURL expands the blur endpoint for a context and field.
func (r Routes) ValidateURL(pc PageContext, field Field) string {
	url := strings.Replace(r.Validate, ":context", pc.String(), 1)
	return strings.Replace(url, ":field", string(field), 1)
}
