package roles

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	Admin        = "admin"
	Dean         = "dean"
	ProgramChair = "program_chair"
	Faculty      = "faculty"
	Staff        = "staff"
	Student      = "student"
)

// DefaultPath is the landing page for roles the registry does not know.
const DefaultPath = "/dashboard"

// Definition describes one role and the dashboard it lands on.
type Definition struct {
	Name        string   `yaml:"name" json:"name"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	Dashboard   string   `yaml:"dashboard" json:"dashboard"`
	Priority    int      `yaml:"priority" json:"priority"`
	Aliases     []string `yaml:"aliases" json:"aliases,omitempty"`
}

type File struct {
	Roles []Definition `yaml:"roles"`
}

var builtin = []Definition{
	{Name: Admin, DisplayName: "Administrator", Dashboard: "/admin", Priority: 60, Aliases: []string{"administrator", "super_admin", "superadmin", "sysadmin"}},
	{Name: Dean, DisplayName: "Dean", Dashboard: "/dean", Priority: 50},
	{Name: ProgramChair, DisplayName: "Program Chair", Dashboard: "/program-chair", Priority: 40, Aliases: []string{"chair", "programchair", "chairperson", "program_head"}},
	{Name: Faculty, DisplayName: "Faculty", Dashboard: "/faculty", Priority: 30, Aliases: []string{"instructor", "teacher", "professor"}},
	{Name: Staff, DisplayName: "Staff", Dashboard: "/staff", Priority: 20, Aliases: []string{"registrar"}},
	{Name: Student, DisplayName: "Student", Dashboard: "/student", Priority: 10},
}

// Registry is the single role -> dashboard lookup table shared by the
// server-side role checks and the client route guards.
type Registry struct {
	mu      sync.RWMutex
	roles   map[string]*Definition
	aliases map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		roles:   make(map[string]*Definition),
		aliases: make(map[string]string),
	}
}

// Builtin returns a registry holding the built-in role table.
func Builtin() *Registry {
	r := NewRegistry()
	for i := range builtin {
		def := builtin[i]
		def.Aliases = append([]string(nil), def.Aliases...)
		r.Register(&def)
	}
	return r
}

// LoadFromFile starts from the built-in table and applies the definitions in
// a yaml file on top. Entries with a known name replace the built-in one.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roles config: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roles config: %w", err)
	}

	registry := Builtin()
	for i := range file.Roles {
		def := file.Roles[i]
		def.Name = clean(def.Name)
		if def.Name == "" {
			return nil, fmt.Errorf("roles config entry %d has no name", i)
		}
		if def.Dashboard == "" {
			if existing, ok := registry.Get(def.Name); ok {
				def.Dashboard = existing.Dashboard
			} else {
				def.Dashboard = DefaultPath
			}
		}
		registry.Register(&def)
	}
	return registry, nil
}

func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := clean(def.Name)
	def.Name = name
	if def.DisplayName == "" {
		def.DisplayName = name
	}
	r.roles[name] = def
	for _, alias := range def.Aliases {
		r.aliases[clean(alias)] = name
	}
}

// Normalize maps any spelling of a role ("ADMIN", "Program Chair",
// "program-chair", "Instructor") to its canonical key. Unknown roles come
// back cleaned but otherwise unchanged.
func (r *Registry) Normalize(raw string) string {
	key := clean(raw)
	if key == "" {
		return ""
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.roles[key]; ok {
		return key
	}
	if name, ok := r.aliases[key]; ok {
		return name
	}
	squashed := strings.ReplaceAll(key, "_", "")
	for name := range r.roles {
		if strings.ReplaceAll(name, "_", "") == squashed {
			return name
		}
	}
	if name, ok := r.aliases[squashed]; ok {
		return name
	}
	return key
}

func (r *Registry) Get(role string) (*Definition, bool) {
	name := r.Normalize(role)
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.roles[name]
	return def, ok
}

func (r *Registry) Exists(role string) bool {
	_, ok := r.Get(role)
	return ok
}

// DashboardPath returns the landing page for a role.
func (r *Registry) DashboardPath(role string) string {
	if def, ok := r.Get(role); ok && def.Dashboard != "" {
		return def.Dashboard
	}
	return DefaultPath
}

func (r *Registry) DisplayName(role string) string {
	if def, ok := r.Get(role); ok {
		return def.DisplayName
	}
	return role
}

func (r *Registry) Priority(role string) int {
	if def, ok := r.Get(role); ok {
		return def.Priority
	}
	return 0
}

// OwnerOf reports which role's dashboard the path belongs to.
func (r *Registry) OwnerOf(path string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	best, bestLen := "", 0
	for name, def := range r.roles {
		dash := def.Dashboard
		if dash == "" || dash == DefaultPath {
			continue
		}
		if path == dash || strings.HasPrefix(path, dash+"/") {
			if len(dash) > bestLen {
				best, bestLen = name, len(dash)
			}
		}
	}
	return best, best != ""
}

// All returns the definitions ordered by descending priority.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Definition, 0, len(r.roles))
	for _, def := range r.roles {
		result = append(result, *def)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority == result[j].Priority {
			return result[i].Name < result[j].Name
		}
		return result[i].Priority > result[j].Priority
	})
	return result
}

func clean(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}
