package authpage

import "net/http"

// Redirect is the navigation produced instead of a form
type Redirect struct {
	To     string
	Status int
}

// Guard decides whether an auth page must redirect. A present session
// identifier always wins over the page context.
func Guard(sessionID string, routes Routes) (Redirect, bool) {
	if sessionID == "" {
		return Redirect{}, false
	}
	return Redirect{To: routes.Notes, Status: http.StatusFound}, true
}
