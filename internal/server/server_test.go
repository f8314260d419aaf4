package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition-credits/internal/catalog"
	"tuition-credits/internal/config"
	"tuition-credits/internal/handler"
	"tuition-credits/internal/i18n"
	"tuition-credits/internal/ledger"
	"tuition-credits/internal/notify"
	"tuition-credits/internal/pkg/lock"
	"tuition-credits/internal/repository"
	"tuition-credits/internal/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
			MetricsEnabled:  true,
		},
		Admin: config.AdminConfig{Tokens: []string{"s3cret"}},
	}

	kv := repository.NewMemoryStore()
	hub := notify.NewHub()
	engine := ledger.NewEngine(repository.NewAccountRepository(kv), lock.NewUserLock(), ledger.Config{Publisher: hub})
	translator, err := i18n.New("en")
	require.NoError(t, err)
	svc := service.NewService(engine, catalog.New(repository.NewPackageRepository(kv), nil), translator, false)
	_, err = svc.GetOrCreateAccount(context.Background(), "t1", "teacher")
	require.NoError(t, err)

	srv, err := New(&Dependencies{
		Config:  cfg,
		Handler: handler.NewHandler(svc, translator, hub),
	})
	require.NoError(t, err)
	return srv
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(&Dependencies{})
	assert.Error(t, err)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "credits_ledger_accounts_created_total")
}

func TestHealth_StorageDown(t *testing.T) {
	srv := newTestServer(t)
	srv.health = func(context.Context) error { return errors.New("connection refused") }

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t)
	body := `{"balance": 80, "note": "support ticket"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/accounts/t1/balance", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/admin/accounts/t1/balance", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/admin/accounts/t1/balance", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer s3cret")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"admin_added"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	h := LoggingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestStartStop(t *testing.T) {
	srv := newTestServer(t)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	// give ListenAndServe a moment to bind
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, srv.Stop(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
