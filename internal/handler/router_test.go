package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/internal/metrics"
	"github.com/zhouzirui/anchor/backend/internal/realtime"
	backupService "github.com/zhouzirui/anchor/backend/internal/service/backup"
	companionService "github.com/zhouzirui/anchor/backend/internal/service/companion"
	memoryService "github.com/zhouzirui/anchor/backend/internal/service/memory"
	"github.com/zhouzirui/anchor/backend/internal/store"
	"github.com/zhouzirui/anchor/backend/internal/store/memstore"
)

func setupRouter(t *testing.T) (http.Handler, *auth.JWTAuthenticator, *backupService.Service) {
	t.Helper()
	hub := realtime.NewHub(nil)
	m := metrics.New()
	s := store.WithPublisher(memstore.New(), hub)

	synth := companionService.NewSynthesizer(nil, companionService.SynthesizerConfig{Timeout: time.Second}, nil, m)
	jwtAuth := auth.NewJWTAuthenticator("test-secret", "")
	backups := backupService.NewService(s, nil, m)

	router := NewRouter(Deps{
		Companion: companionService.NewService(s, synth, time.Second, nil, m),
		Backup:    backups,
		Memories:  memoryService.NewService(s, nil),
		Auth:      auth.Chain{jwtAuth},
		Hub:       hub,
		Metrics:   m,
	})
	return router, jwtAuth, backups
}

func serve(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	r, _, _ := setupRouter(t)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz", "", "").Code)

	serve(r, http.MethodPost, "/anchor-respond", `{"message":"hello","userId":"u1"}`, "")
	rec := serve(r, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `anchor_replies_total{source="fallback"} 1`)
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	r, jwtAuth, backups := setupRouter(t)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/conversations", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/memories", "", "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/backup-memories", "", "").Code)

	token, err := jwtAuth.IssueToken(auth.User{ID: "u1"}, time.Hour)
	require.NoError(t, err)

	rec := serve(r, http.MethodPost, "/api/messages", `{"content":"I'm thankful for today"}`, token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(r, http.MethodPost, "/api/memories", `{"title":"A good day","feelings":["grateful"]}`, token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(r, http.MethodPost, "/backup-memories", `{"format":"csv"}`, token)
	backups.Wait()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A good day")
}

func TestAccountsUnconfigured(t *testing.T) {
	r, _, _ := setupRouter(t)

	rec := serve(r, http.MethodPost, "/api/auth/signin", `{"email":"a@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveFeedIsMounted(t *testing.T) {
	r, _, _ := setupRouter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/live/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
