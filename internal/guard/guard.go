// Package guard decides what a client route should do for the current
// session: wait for rehydration, render, or redirect.
package guard

import (
	"log/slog"
	"path"
	"strings"

	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/session"
)

type Kind int

const (
	Wait Kind = iota
	Render
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the outcome for one navigation. Replace asks the caller to
// replace the current history entry instead of pushing a new one.
type Decision struct {
	Kind    Kind
	To      string
	Replace bool
}

const LoginPath = "/login"

// PublicPaths are reachable without a session. Signed-in users are sent
// away from them.
var PublicPaths = []string{LoginPath, "/signup", "/register", "/forgot-password"}

// Guard is safe for concurrent use when its Storage is.
type Guard struct {
	roles *roles.Registry
	store session.Storage
}

// New builds a guard over reg. store holds the intended destination and
// may be nil.
func New(reg *roles.Registry, store session.Storage) *Guard {
	if reg == nil {
		reg = roles.Default()
	}
	return &Guard{roles: reg, store: store}
}

// IsPublic reports whether target is one of PublicPaths.
func IsPublic(target string) bool {
	p := clean(target)
	for _, pub := range PublicPaths {
		if p == pub {
			return true
		}
	}
	return false
}

// Decide applies the route rules for target under st.
func (g *Guard) Decide(st session.State, target string) Decision {
	if st.IsLoading {
		return Decision{Kind: Wait}
	}

	if !st.IsAuthenticated || st.User == nil {
		if IsPublic(target) {
			return Decision{Kind: Render}
		}
		g.remember(target)
		return Decision{Kind: Redirect, To: LoginPath, Replace: true}
	}

	role := st.User.Role
	home := g.roles.DashboardPath(role)

	if IsPublic(target) {
		if dest := g.takeIntended(); dest != "" && g.Allowed(role, dest) {
			return Decision{Kind: Redirect, To: dest, Replace: true}
		}
		return Decision{Kind: Redirect, To: home, Replace: true}
	}

	p := clean(target)
	if (p == "/" || p == roles.DefaultPath) && home != p {
		return Decision{Kind: Redirect, To: home, Replace: true}
	}
	if !g.Allowed(role, target) {
		return Decision{Kind: Redirect, To: home, Replace: true}
	}
	return Decision{Kind: Render}
}

// Allowed reports whether role may open target: public pages are never
// a destination and another role's dashboard tree is off limits.
func (g *Guard) Allowed(role, target string) bool {
	if IsPublic(target) {
		return false
	}
	owner, ok := g.roles.OwnerOf(clean(target))
	return !ok || owner == g.roles.Normalize(role)
}

// AfterLogout is the navigation that follows a logout. It replaces the
// history entry so the back button cannot return to a protected page.
func (g *Guard) AfterLogout() Decision {
	return Decision{Kind: Redirect, To: LoginPath, Replace: true}
}

// DashboardPath is the landing page for role.
func (g *Guard) DashboardPath(role string) string {
	return g.roles.DashboardPath(role)
}

func (g *Guard) remember(target string) {
	if g.store == nil || !isLocal(target) || clean(target) == "/" {
		return
	}
	if err := g.store.Set(session.IntendedDestinationKey, target); err != nil {
		slog.Warn("failed to remember destination", "path", target, "error", err)
	}
}

func (g *Guard) takeIntended() string {
	if g.store == nil {
		return ""
	}
	dest, ok, err := g.store.Get(session.IntendedDestinationKey)
	if err != nil || !ok {
		return ""
	}
	if err := g.store.Remove(session.IntendedDestinationKey); err != nil {
		slog.Warn("failed to clear destination", "error", err)
	}
	if !isLocal(dest) {
		return ""
	}
	return clean(dest)
}

// isLocal reports whether target is an absolute path on this site. Scheme
// or protocol-relative forms ("//host", "/\\host") are rejected.
func isLocal(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return false
	}
	return !strings.ContainsAny(target, "\\\r\n")
}

// clean drops the query and fragment and normalizes the path.
func clean(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return "/"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return path.Clean(target)
}
