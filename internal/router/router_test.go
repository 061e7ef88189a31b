package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lumiere/internal/config"
	"lumiere/internal/event"
	"lumiere/internal/handler"
	"lumiere/internal/objectstore"
	"lumiere/internal/repository"
	"lumiere/internal/service"
	"lumiere/internal/testutil"
)

func newTestRouter(t *testing.T, basePath string) http.Handler {
	t.Helper()

	cfg := &config.Config{
		BasePath:         basePath,
		AllowedOrigins:   []string{"https://app.example"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		RequestTimeout:   5 * time.Second,
	}

	users := testutil.NewUserStore()
	bus := event.NewBus()
	authSvc, err := service.NewAuthService(users, repository.NewMemoryTokenStore(), service.NewOpaqueCodec(), bus, service.AuthConfig{
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	gallerySvc := service.NewGalleryService(testutil.NewGalleryStore(users), &objectstore.MockStore{}, bus, time.Hour)

	return New(cfg, authSvc, Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		Gallery: handler.NewGalleryHandler(gallerySvc, 1<<20),
		Health:  handler.NewHealthHandler("v1", time.UTC),
		Audit:   handler.NewAuditHandler(service.NewAuditService(&testutil.AuditStore{}, bus)),
	}, prometheus.NewRegistry())
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealthUnderBasePath(t *testing.T) {
	h := newTestRouter(t, "/be")

	rec := serve(h, http.MethodGet, "/be/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, "ok", body["data"].(map[string]any)["status"])

	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestAreasAreMountedUnderBasePath(t *testing.T) {
	h := newTestRouter(t, "/be")

	rec := serve(h, http.MethodPost, "/be/auth/register", `{"email":"a@b.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decode(t, rec)["data"].(map[string]any)
	token := data["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/be/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)

	rec = serve(h, http.MethodGet, "/be/galleries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 0, decode(t, rec)["data"].(map[string]any)["count"])
}

func TestUnknownRoutesShareOneEnvelope(t *testing.T) {
	h := newTestRouter(t, "")

	for _, target := range []string{"/nope", "/auth/nope", "/galleries/a/b"} {
		rec := serve(h, http.MethodGet, target, "")
		require.Equal(t, http.StatusNotFound, rec.Code, target)
		require.Equal(t, map[string]any{"success": false, "message": "Route not found"}, decode(t, rec), target)
	}

	rec := serve(h, http.MethodPatch, "/health", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	h := newTestRouter(t, "")

	rec := serve(h, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Authentication required", decode(t, rec)["message"])
}

func TestPreflightIsBare(t *testing.T) {
	h := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/galleries", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
	require.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(h, http.MethodOptions, "/anything/at/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, "")

	serve(h, http.MethodGet, "/health", "")

	rec := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "lumiere_http_requests_total")
}

func TestRoutesOutsideBasePathAreNotFound(t *testing.T) {
	h := newTestRouter(t, "/be")

	for _, target := range []string{"/health", "/ready", "/audit", "/bend/health"} {
		rec := serve(h, http.MethodGet, target, "")
		require.Equal(t, http.StatusNotFound, rec.Code, target)
		require.Equal(t, "Route not found", decode(t, rec)["message"], target)
	}

	rec := serve(h, http.MethodGet, "/be/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ready", decode(t, rec)["data"].(map[string]any)["status"])
}
