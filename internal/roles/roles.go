package roles

import "sync"

var (
	defaultMu       sync.RWMutex
	defaultRegistry = Builtin()
)

// SetDefault replaces the process-wide registry, typically with one loaded
// from ROLES_CONFIG_PATH at startup.
func SetDefault(r *Registry) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = r
}

func Default() *Registry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultRegistry
}

func Normalize(role string) string { return Default().Normalize(role) }

func DashboardPath(role string) string { return Default().DashboardPath(role) }

// Is reports whether role normalizes to any of want.
func Is(role string, want ...string) bool {
	r := Default()
	name := r.Normalize(role)
	for _, w := range want {
		if name == r.Normalize(w) {
			return true
		}
	}
	return false
}

// AtLeast reports whether role ranks at or above min.
func AtLeast(role, min string) bool {
	r := Default()
	return r.Priority(role) >= r.Priority(min)
}
