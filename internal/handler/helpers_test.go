package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lumiere/internal/event"
	"lumiere/internal/gateway"
	"lumiere/internal/objectstore"
	"lumiere/internal/repository"
	"lumiere/internal/service"
	"lumiere/internal/testutil"
)

type harness struct {
	auth      *gateway.Router
	galleries *gateway.Router
	root      *gateway.Router

	users   *testutil.UserStore
	store   *testutil.GalleryStore
	audit   *testutil.AuditStore
	objects *objectstore.MockStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		users:   testutil.NewUserStore(),
		audit:   &testutil.AuditStore{},
		objects: &objectstore.MockStore{},
	}
	h.store = testutil.NewGalleryStore(h.users)

	bus := event.NewBus()
	authSvc, err := service.NewAuthService(h.users, repository.NewMemoryTokenStore(), service.NewOpaqueCodec(), bus, service.AuthConfig{
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	gallerySvc := service.NewGalleryService(h.store, h.objects, bus, time.Hour)
	auditSvc := service.NewAuditService(h.audit, bus)
	responder := gateway.NewResponder(false)

	h.auth = gateway.New(authSvc, responder, gateway.WithBase("/auth"))
	h.auth.Use(gateway.Preflight())
	NewAuthHandler(authSvc).Mount(h.auth)

	h.galleries = gateway.New(authSvc, responder, gateway.WithBase("/galleries"))
	h.galleries.Use(gateway.Preflight())
	NewGalleryHandler(gallerySvc, 1<<20).Mount(h.galleries)

	h.root = gateway.New(authSvc, responder)
	h.root.Use(gateway.Preflight())
	NewHealthHandler("v1", time.UTC).Mount(h.root)
	NewAuditHandler(auditSvc).Mount(h.root)

	return h
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func do(t *testing.T, r http.Handler, method, target string, body io.Reader, header http.Header) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
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

type tokenPayload struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *harness) register(t *testing.T, email string) tokenPayload {
	t.Helper()

	rec, env := do(t, h.auth, http.MethodPost, "/auth/register", jsonBody(t, map[string]string{"email": email, "password": "secret1"}), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload tokenPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	return payload
}
