//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lumiere/internal/config"
	"lumiere/internal/database"
	"lumiere/internal/event"
	"lumiere/internal/handler"
	"lumiere/internal/objectstore"
	"lumiere/internal/repository"
	"lumiere/internal/router"
	"lumiere/internal/service"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// openDB connects to TEST_DATABASE_URL and ensures the schema, skipping the
// test when no database is configured.
func openDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, dsn, 4, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

type testServer struct {
	*httptest.Server
	db      *database.DB
	objects *objectstore.MockStore
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	db := openDB(t)
	bus := event.NewBus()
	objects := &objectstore.MockStore{}

	authService, err := service.NewAuthService(
		repository.NewUserRepository(db.Pool),
		repository.NewTokenRepository(db.Pool),
		service.NewOpaqueCodec(),
		bus,
		service.AuthConfig{TokenTTL: time.Hour, BcryptCost: 4},
	)
	require.NoError(t, err)

	galleryService := service.NewGalleryService(repository.NewGalleryRepository(db.Pool), objects, bus, time.Hour)
	auditService := service.NewAuditService(repository.NewAuditRepository(db.Pool), bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		auditService.Run(ctx)
		close(done)
	}()

	cfg := &config.Config{
		BasePath:         "/api",
		AllowedOrigins:   []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		RequestTimeout:   10 * time.Second,
	}

	server := httptest.NewServer(router.New(cfg, authService, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Gallery: handler.NewGalleryHandler(galleryService, 1<<20),
		Health:  handler.NewHealthHandler("test", time.UTC, handler.DependencyCheck{Name: "database", Check: db.Ping}),
		Audit:   handler.NewAuditHandler(auditService),
	}, nil))

	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})

	return &testServer{Server: server, db: db, objects: objects}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, header http.Header) (*http.Response, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}, "Content-Type": {"application/json"}}
}

type session struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresIn int64  `json:"expires_in"`
}

func (s *testServer) register(t *testing.T, email string) session {
	t.Helper()

	resp, env := s.do(t, http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{"email": email, "password": "secret1"}), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	var out session
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
