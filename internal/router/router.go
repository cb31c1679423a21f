// Package router maps paths to views and keeps navigation history.
package router

import "strings"

const (
	PathRegister  = "/register"
	PathLogin     = "/login"
	PathDashboard = "/dashboard"
)

// View names what to render for a path.
type View string

const (
	ViewRegister  View = "register"
	ViewLogin     View = "login"
	ViewDashboard View = "dashboard"
)

type Route struct {
	Path    string
	View    View
	Guarded bool
}

// Routes is the route table. Anything else redirects to /login.
var Routes = []Route{
	{Path: PathRegister, View: ViewRegister},
	{Path: PathLogin, View: ViewLogin},
	{Path: PathDashboard, View: ViewDashboard, Guarded: true},
}

// Resolution is either a view to render or a redirect.
type Resolution struct {
	Path       string
	View       View
	RedirectTo string
	// Replace means the redirect replaces the current history entry.
	Replace bool
}

func (r Resolution) Redirected() bool { return r.RedirectTo != "" }

// Guard decides whether a guarded route may render. It has no side effects.
func Guard(authenticated bool, route Route) Resolution {
	if route.Guarded && !authenticated {
		return Resolution{Path: route.Path, RedirectTo: PathLogin, Replace: true}
	}
	return Resolution{Path: route.Path, View: route.View}
}

// Resolve looks up path and applies the guard.
func Resolve(path string, authenticated bool) Resolution {
	path = normalize(path)
	for _, rt := range Routes {
		if rt.Path == path {
			return Guard(authenticated, rt)
		}
	}
	return Resolution{Path: path, RedirectTo: PathLogin, Replace: true}
}

func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
