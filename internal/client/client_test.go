package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/crms/internal/session"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/api/")
}

func TestLogin(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@school.edu", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"token":"tok","refresh_token":"ref",
			"user":{"id":"u1","first_name":"Ana","last_name":"Cruz","role":"faculty","role_name":"Faculty"}}`))
	})

	res, err := c.Login(context.Background(), "ana@school.edu", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "ref", res.RefreshToken)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "Ana Cruz", res.User.Name)
	assert.Equal(t, "faculty", res.User.Role)
}

func TestErrorEnvelope(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"Validation failed","fields":[{"field":"email","error":"email must be a valid email address"}]}`))
	})

	err := c.Register(context.Background(), session.Registration{Email: "bad"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Validation failed (email: email must be a valid email address)", err.Error())
}

func TestUnauthorizedPlainBody(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Me(context.Background(), "tok")
	assert.True(t, IsUnauthorized(err))
	assert.EqualError(t, err, "Unauthorized")
}

func TestRegisterStudentEndpoint(t *testing.T) {
	var path string
	var body map[string]interface{}
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"message":"pending approval"}`))
	})

	err := c.Register(context.Background(), session.Registration{
		Email: "s@school.edu", Password: "secret123", FirstName: "Sam", LastName: "Reyes",
		StudentNumber: "2024-00001", YearLevel: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/auth/register/student", path)
	assert.Equal(t, "2024-00001", body["student_number"])
	assert.EqualValues(t, 1, body["year_level"])
	_, hasRole := body["role"]
	assert.False(t, hasRole)
}

func TestEmptyBaseURL(t *testing.T) {
	_, err := New("").Me(context.Background(), "tok")
	assert.Error(t, err)
}
