package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/config"
	"github.com/ahmetcoskunkizilkaya/crms/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/crms/internal/models"
	"github.com/ahmetcoskunkizilkaya/crms/internal/repository"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/services"
)

type testServer struct {
	app        *fiber.App
	repo       *repository.MemoryUserRepository
	dashboards *countingInvalidator
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateAnalytics(context.Context) { c.calls++ }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "handler-secret",
		JWTIssuer:        "crms",
		JWTAccessExpiry:  time.Minute,
		JWTRefreshExpiry: time.Hour,
	}
	repo := repository.NewMemoryUserRepository()
	for _, def := range roles.Builtin().All() {
		repo.AddRole(def.Name, def.DisplayName, def.Priority)
	}
	dashboards := &countingInvalidator{}
	h := NewAuthHandler(services.NewAuthService(repo, cfg, nil), dashboards)

	app := fiber.New()
	auth := app.Group("/api/auth")
	auth.Post("/register", h.Register)
	auth.Post("/register/student", h.RegisterStudent)
	auth.Post("/login", h.Login)
	protected := app.Group("/api/auth", middleware.JWTProtected(cfg), middleware.NoStore())
	protected.Get("/me", h.Me)
	protected.Get("/redirect", h.Redirect)
	protected.Post("/logout", h.Logout)
	return &testServer{app: app, repo: repo, dashboards: dashboards}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}, *http.Response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]interface{}{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, resp
}

func student(number, email string) map[string]interface{} {
	return map[string]interface{}{
		"student_number": number,
		"email":          email,
		"password":       "password123",
		"first_name":     "Jose",
		"last_name":      "Rizal",
	}
}

func TestStudentRegistrationDuplicates(t *testing.T) {
	s := newTestServer(t)

	status, body, _ := s.do(t, "POST", "/api/auth/register/student", student("2024-0001", "jose@school.edu"), "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, true, body["success"])

	status, body, _ = s.do(t, "POST", "/api/auth/register/student", student("2024-0001", "other@school.edu"), "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])

	status, _, _ = s.do(t, "POST", "/api/auth/register/student", student("2024-0002", "jose@school.edu"), "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	users, students, profiles := s.repo.Count()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, students)
	assert.Equal(t, 1, profiles)
}

func TestStudentRegistrationValidation(t *testing.T) {
	s := newTestServer(t)
	req := student("!!", "not-an-email")
	delete(req, "first_name")

	status, body, _ := s.do(t, "POST", "/api/auth/register/student", req, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	fields, ok := body["fields"].([]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 3)
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)
	status, body, _ := s.do(t, "POST", "/api/auth/register/student", student("2024-0009", "pending@school.edu"), "")
	require.Equal(t, fiber.StatusCreated, status)

	// pending accounts are refused with a right or wrong password
	for _, pw := range []string{"password123", "wrong-password"} {
		status, body, _ = s.do(t, "POST", "/api/auth/login", map[string]string{"email": "pending@school.edu", "password": pw}, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, false, body["success"])
	}

	user, err := s.repo.FindUserByEmail("pending@school.edu")
	require.NoError(t, err)
	s.repo.SetApproval(user.ID, models.ApprovalApproved)

	status, body, _ = s.do(t, "POST", "/api/auth/login", map[string]string{"email": "pending@school.edu", "password": "password123"}, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	u, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, u, "password_hash")
	assert.NotContains(t, u, "password")
	assert.Equal(t, "student", u["role"])

	status, body, resp := s.do(t, "GET", "/api/auth/me", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
	me := body["user"].(map[string]interface{})
	assert.Equal(t, user.ID.String(), me["id"])

	status, body, _ = s.do(t, "GET", "/api/auth/redirect", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "/student", body["path"])

	status, _, _ = s.do(t, "POST", "/api/auth/logout", nil, token)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestMeUnknownUser(t *testing.T) {
	s := newTestServer(t)
	tokens := services.NewTokenIssuer(&config.Config{JWTSecret: "handler-secret", JWTAccessExpiry: time.Minute})
	token, _, err := tokens.AccessToken(&models.User{ID: uuid.New(), Role: models.Role{Name: "faculty"}})
	require.NoError(t, err)

	status, _, _ := s.do(t, "GET", "/api/auth/me", nil, token)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestRegisterStaffForbiddenAdmin(t *testing.T) {
	s := newTestServer(t)
	status, _, _ := s.do(t, "POST", "/api/auth/register", map[string]string{
		"email": "x@school.edu", "password": "password123", "first_name": "X", "last_name": "Y", "role": "admin",
	}, "")
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestRegistrationRefreshesDashboards(t *testing.T) {
	s := newTestServer(t)

	status, _, _ := s.do(t, "POST", "/api/auth/register/student", student("2024-0100", "ana@school.edu"), "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 1, s.dashboards.calls)

	status, _, _ = s.do(t, "POST", "/api/auth/register", map[string]string{
		"email": "prof@school.edu", "password": "password123", "first_name": "Ana", "last_name": "Reyes", "role": "faculty",
	}, "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, 2, s.dashboards.calls)

	status, _, _ = s.do(t, "POST", "/api/auth/register/student", student("2024-0100", "dup@school.edu"), "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, 2, s.dashboards.calls)
}
