// Package nav decides which screen a route actually shows for the current session.
package nav

import (
	"strings"

	"pitchdesk/internal/model"
)

type Route string

const (
	Login     Route = "/login"
	Dashboard Route = "/dashboard"
	Generate  Route = "/generate"
	Search    Route = "/search"
	Config    Route = "/config"
)

// Tabs is the order of the screens in the header.
var Tabs = []Route{Dashboard, Generate, Search, Config}

// Session is what routing needs to know about the primary login.
type Session interface {
	Valid() bool
	Role() string
}

func (r Route) Title() string {
	switch r {
	case Login:
		return "Login"
	case Dashboard:
		return "Dashboard"
	case Generate:
		return "Generate"
	case Search:
		return "Link Search"
	case Config:
		return "Config"
	default:
		return string(r)
	}
}

// Parse normalizes a path. Unknown paths become Dashboard.
func Parse(path string) Route {
	p := strings.ToLower(strings.TrimSpace(path))
	p = strings.TrimRight(p, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	switch r := Route(p); r {
	case Login, Dashboard, Generate, Search, Config:
		return r
	default:
		return Dashboard
	}
}

// Allowed reports whether s may see r.
func Allowed(r Route, s Session) bool {
	switch r {
	case Login:
		return true
	case Config:
		return authenticated(s) && s.Role() == model.RoleAdmin
	default:
		return authenticated(s)
	}
}

func authenticated(s Session) bool {
	return s != nil && s.Valid()
}

// Resolve returns the screen shown for path: Login without a valid session,
// Dashboard for unknown paths and for Config without the admin role.
func Resolve(path string, s Session) Route {
	r := Parse(path)
	if r == Login {
		return Login
	}
	if !authenticated(s) {
		return Login
	}
	if !Allowed(r, s) {
		return Dashboard
	}
	return r
}

// VisibleTabs lists the tabs s can open.
func VisibleTabs(s Session) []Route {
	out := make([]Route, 0, len(Tabs))
	for _, r := range Tabs {
		if Allowed(r, s) {
			out = append(out, r)
		}
	}
	return out
}
