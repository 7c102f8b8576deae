package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const facultyJSON = `{"id":"u1","email":"ana@school.edu","first_name":"Ana","last_name":"Cruz","role":"faculty","role_name":"Faculty"}`

// fakeAPI answers the auth endpoints the CLI uses.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Invalid email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"token":"tok","refresh_token":"ref","user":` + facultyJSON + `}`))
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"user":` + facultyJSON + `}`))
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"message":"Logged out successfully"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)
	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

type harness struct {
	api   string
	state string
}

func newHarness(t *testing.T) harness {
	return harness{
		api:   fakeAPI(t).URL + "/api",
		state: filepath.Join(t.TempDir(), "state.db"),
	}
}

func (h harness) run(args ...string) (string, error) {
	args = append(args, "--api", h.api, "--state", h.state)
	out, _, err := executeCommand(NewRootCmd(), args...)
	return out, err
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("login", "--email", "ana@school.edu", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ana Cruz (faculty)")
	assert.Contains(t, out, "Continue to /faculty")

	out, err = h.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "role: faculty")
	assert.Contains(t, out, "dashboard: /faculty")

	out, err = h.run("route", "/admin/users")
	require.NoError(t, err)
	assert.Equal(t, "redirect /faculty\n", out)

	out, err = h.run("route", "/faculty/classes")
	require.NoError(t, err)
	assert.Equal(t, "render\n", out)

	out, err = h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Continue to /login")

	_, err = h.run("whoami")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitNotSignedIn, exitErr.Code)
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "--email", "ana@school.edu", "--password", "wrong")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, exitAuth, exitErr.Code)
	assert.Contains(t, exitErr.Message, "Invalid email or password")
}

func TestRouteRemembersDestination(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("route", "/faculty/classes/7")
	require.NoError(t, err)
	assert.Equal(t, "redirect /login\n", out)

	out, err = h.run("login", "--email", "ana@school.edu", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Continue to /faculty/classes/7")
}

func TestWhoamiJSON(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("login", "--email", "ana@school.edu", "--password", "secret123")
	require.NoError(t, err)

	out, err := h.run("whoami", "--json")
	require.NoError(t, err)
	var user map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "u1", user["id"])
	assert.Equal(t, "faculty", user["role"])
}

func TestProfileRequiresFields(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("profile")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "nothing to update", exitErr.Message)
}
