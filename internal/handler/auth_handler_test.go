package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	body := `{"email":"a@b.com","password":"secret1"}`

	rec, env := do(t, h.auth, http.MethodPost, "/auth/register", strings.NewReader(body), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
	require.Equal(t, "Registration successful", env.Message)

	var payload tokenPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotEmpty(t, payload.Token)
	require.NotEmpty(t, payload.UserID)
	require.EqualValues(t, 3600, payload.ExpiresIn)

	rec, env = do(t, h.auth, http.MethodPost, "/auth/register", strings.NewReader(body), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
	require.Contains(t, env.Message, "already in use")

	// the first session survives the rejected registration
	rec, _ = do(t, h.auth, http.MethodGet, "/auth/me", nil, bearer(payload.Token))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	tests := []struct {
		name   string
		body   string
		status int
		errors map[string]string
	}{
		{
			name:   "missing password",
			body:   `{"email":"a@b.com"}`,
			status: http.StatusUnprocessableEntity,
			errors: map[string]string{"email": "Email is required", "password": "Password is required"},
		},
		{
			name:   "empty body",
			body:   ``,
			status: http.StatusUnprocessableEntity,
			errors: map[string]string{"email": "Email is required", "password": "Password is required"},
		},
		{
			name:   "bad email",
			body:   `{"email":"not-an-email","password":"secret1"}`,
			status: http.StatusUnprocessableEntity,
			errors: map[string]string{"email": "Invalid email format"},
		},
		{
			name:   "display name form",
			body:   `{"email":"Ann <a@b.com>","password":"secret1"}`,
			status: http.StatusUnprocessableEntity,
			errors: map[string]string{"email": "Invalid email format"},
		},
		{
			name:   "short password",
			body:   `{"email":"a@b.com","password":"12345"}`,
			status: http.StatusUnprocessableEntity,
			errors: map[string]string{"password": "Password must be at least 6 characters"},
		},
		{
			name:   "malformed json",
			body:   `{"email":`,
			status: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, h.auth, http.MethodPost, "/auth/register", strings.NewReader(tc.body), nil)
			require.Equal(t, tc.status, rec.Code)
			require.False(t, env.Success)
			if tc.errors != nil {
				require.Equal(t, "Validation failed", env.Message)
				require.Equal(t, tc.errors, env.Errors)
			}
		})
	}

	require.Zero(t, h.users.Len())
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	registered := h.register(t, "a@b.com")

	rec, env := do(t, h.auth, http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.com","password":"secret1"}`), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Login successful", env.Message)

	var login tokenPayload
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.Equal(t, registered.UserID, login.UserID)

	rec, env = do(t, h.auth, http.MethodGet, "/auth/me", nil, bearer(login.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user_id":"`+registered.UserID+`","email":"a@b.com"}`, string(env.Data))

	rec, env = do(t, h.auth, http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.com","password":"nope-nope"}`), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", env.Message)

	rec, env = do(t, h.auth, http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@b.com"}`), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Len(t, env.Errors, 2)
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.register(t, "a@b.com")

	rec, env := do(t, h.auth, http.MethodPost, "/auth/logout", nil, bearer(session.Token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Logged out successfully", env.Message)

	rec, env = do(t, h.auth, http.MethodGet, "/auth/me", nil, bearer(session.Token))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Authentication required", env.Message)

	rec, _ = do(t, h.auth, http.MethodPost, "/auth/logout", nil, bearer(session.Token))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessTokenHeader(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	session := h.register(t, "a@b.com")

	rec, _ := do(t, h.auth, http.MethodGet, "/auth/me", nil, http.Header{"X-Access-Token": {session.Token}})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthPreflight(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	rec, _ := do(t, h.auth, http.MethodOptions, "/auth/login", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, rec.Body.Len())
}
