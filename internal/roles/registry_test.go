package roles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	r := Builtin()
	cases := map[string]string{
		"ADMIN":          Admin,
		"admin":          Admin,
		" Admin ":        Admin,
		"Administrator":  Admin,
		"Program Chair":  ProgramChair,
		"program-chair":  ProgramChair,
		"PROGRAM_CHAIR":  ProgramChair,
		"ProgramChair":   ProgramChair,
		"chair":          ProgramChair,
		"Instructor":     Faculty,
		"DEAN":           Dean,
		"student":        Student,
		"Lab Technician": "lab_technician",
		"":               "",
	}
	for in, want := range cases {
		assert.Equal(t, want, r.Normalize(in), "normalize %q", in)
	}
}

func TestDashboardPathIsCaseInsensitive(t *testing.T) {
	r := Builtin()
	assert.Equal(t, r.DashboardPath("admin"), r.DashboardPath("ADMIN"))
	assert.Equal(t, "/admin", r.DashboardPath("ADMIN"))
	assert.Equal(t, "/dean", r.DashboardPath("Dean"))
	assert.Equal(t, "/program-chair", r.DashboardPath("program chair"))
	assert.Equal(t, DefaultPath, r.DashboardPath("janitor"))
}

func TestOwnerOf(t *testing.T) {
	r := Builtin()
	owner, ok := r.OwnerOf("/faculty/classes/1")
	require.True(t, ok)
	assert.Equal(t, Faculty, owner)

	owner, ok = r.OwnerOf("/program-chair")
	require.True(t, ok)
	assert.Equal(t, ProgramChair, owner)

	_, ok = r.OwnerOf("/profile")
	assert.False(t, ok)

	_, ok = r.OwnerOf("/administrator")
	assert.False(t, ok)
}

func TestAllOrderedByPriority(t *testing.T) {
	all := Builtin().All()
	require.Len(t, all, 6)
	assert.Equal(t, Admin, all[0].Name)
	assert.Equal(t, Student, all[len(all)-1].Name)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	data := []byte(`roles:
  - name: Dean
    dashboard: /dashboard/analytics
  - name: Registrar Head
    display_name: Registrar Head
    dashboard: /registrar
    priority: 25
    aliases: [head registrar]
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	r, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/analytics", r.DashboardPath("DEAN"))
	assert.Equal(t, "/registrar", r.DashboardPath("head-registrar"))
	assert.Equal(t, "/admin", r.DashboardPath("admin"))
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  - dashboard: /x\n"), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestPackageHelpers(t *testing.T) {
	assert.True(t, Is("Program Chair", ProgramChair, Dean))
	assert.False(t, Is("student", Faculty))
	assert.True(t, AtLeast("dean", Faculty))
	assert.False(t, AtLeast("staff", Faculty))
}
