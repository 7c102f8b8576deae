// Package client is a small HTTP client for the CRMS API. It implements
// session.API so the CLI can drive the same session manager as any other
// front end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/crms/internal/session"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 20 * time.Second

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

type authEnvelope struct {
	Token        string             `json:"token"`
	RefreshToken string             `json:"refresh_token"`
	User         session.UserRecord `json:"user"`
}

type userEnvelope struct {
	User session.UserRecord `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*session.LoginResult, error) {
	var out authEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &out); err != nil {
		return nil, err
	}
	return &session.LoginResult{Token: out.Token, RefreshToken: out.RefreshToken, User: out.User}, nil
}

func (c *Client) Register(ctx context.Context, r session.Registration) error {
	body := map[string]interface{}{
		"email":          r.Email,
		"password":       r.Password,
		"first_name":     r.FirstName,
		"middle_name":    r.MiddleName,
		"last_name":      r.LastName,
		"contact_number": r.ContactNumber,
	}
	if r.DepartmentID != "" {
		body["department_id"] = r.DepartmentID
	}

	path := "/auth/register"
	if r.StudentNumber != "" {
		path = "/auth/register/student"
		body["student_number"] = r.StudentNumber
		if r.ProgramID != "" {
			body["program_id"] = r.ProgramID
		}
		if r.YearLevel > 0 {
			body["year_level"] = r.YearLevel
		}
	} else {
		body["role"] = r.Role
	}
	return c.do(ctx, http.MethodPost, path, "", body, nil)
}

func (c *Client) Me(ctx context.Context, token string) (*session.UserRecord, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, fields map[string]string) (*session.UserRecord, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPut, "/auth/me", token, fields, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, token, current, next string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return c.do(ctx, http.MethodPut, "/auth/me/password", token, body, nil)
}

func (c *Client) Logout(ctx context.Context, token, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.do(ctx, http.MethodPost, "/auth/logout", token, body, nil)
}

// Get fetches an arbitrary API path into out. It backs the read-only CLI
// commands.
func (c *Client) Get(ctx context.Context, path, token string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, token, nil, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	if c.baseURL == "" {
		return errors.New("client: API base URL is empty")
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var env struct {
		Error   string       `json:"error"`
		Message string       `json:"message"`
		Fields  []FieldError `json:"fields"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(data, &env); err == nil {
		apiErr.Message = env.Error
		if apiErr.Message == "" {
			apiErr.Message = env.Message
		}
		apiErr.Fields = env.Fields
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

var _ session.API = (*Client)(nil)
