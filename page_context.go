package authpage

import (
	"strings"
)

// PageContext selects the copy and the fields an auth page renders.
type PageContext string

const (
	ContextLogin    PageContext = "login"
	ContextRegister PageContext = "register"
	ContextNotes    PageContext = "notes"
	ContextTwitters PageContext = "twitters"
	ContextArticles PageContext = "articles"
)

// PageContexts lists every accepted context
var PageContexts = []PageContext{
	ContextLogin,
	ContextRegister,
	ContextNotes,
	ContextTwitters,
	ContextArticles,
}

// ParsePageContext accepts any of PageContexts, case insensitive.
func ParsePageContext(raw string) (PageContext, error) {
	pc := PageContext(strings.ToLower(strings.TrimSpace(raw)))
	if !pc.Valid() {
		return "", withSource(ErrInvalidPageContext, nil).
			WithMetadata(map[string]any{"page_context": raw})
	}
	return pc, nil
}

func (p PageContext) Valid() bool {
	for _, c := range PageContexts {
		if c == p {
			return true
		}
	}
	return false
}

func (p PageContext) String() string {
	return string(p)
}

// IsLogin reports whether the page is the sign in page. Every other
// context renders the sign up copy.
func (p PageContext) IsLogin() bool {
	return p == ContextLogin
}

// RequiresEmail is true only for register, the one context that renders
// and validates the email field.
func (p PageContext) RequiresEmail() bool {
	return p == ContextRegister
}

func (p PageContext) Heading() string {
	if p.IsLogin() {
		return "Sign in"
	}
	return "Sign up"
}

func (p PageContext) SubmitLabel() string {
	if p.IsLogin() {
		return "Log in"
	}
	return "Register"
}

func (p PageContext) SwitchLabel() string {
	if p.IsLogin() {
		return "I want to log in!"
	}
	return "I want my account!"
}

// SwitchRoute points a login page to register and everything else to login.
func (p PageContext) SwitchRoute(routes Routes) string {
	if p.IsLogin() {
		return routes.Register
	}
	return routes.Login
}
