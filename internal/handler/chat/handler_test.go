package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/anchor/backend/internal/auth"
	"github.com/zhouzirui/anchor/backend/internal/model/chat"
	"github.com/zhouzirui/anchor/backend/internal/service/ai"
	companionService "github.com/zhouzirui/anchor/backend/internal/service/companion"
	"github.com/zhouzirui/anchor/backend/internal/store"
	"github.com/zhouzirui/anchor/backend/internal/store/memstore"
)

type stubGenerator struct{ text string }

func (g stubGenerator) GenerateText(context.Context, ai.Prompt, ai.Options) (string, error) {
	return g.text, nil
}

func setupRouter(t *testing.T) (*chi.Mux, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	synth := companionService.NewSynthesizer(stubGenerator{text: "I'm glad you told me."}, companionService.SynthesizerConfig{Timeout: time.Second}, nil, nil)
	svc := companionService.NewService(s, synth, time.Second, nil, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), auth.User{ID: "u1"})))
		})
	})
	New(svc, nil).RegisterRoutes(r)
	return r, s
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSendStoresExchange(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodPost, "/messages", `{"content":"I'm so sad today"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var exchange companionService.Exchange
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exchange))
	assert.Equal(t, chat.SenderUser, exchange.User.Sender)
	assert.Equal(t, "sad", string(exchange.User.Mood))
	assert.Equal(t, "I'm glad you told me.", exchange.Reply.Reply)

	rec = do(r, http.MethodGet, "/conversations?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Turns []chat.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Turns, 2)
	assert.Equal(t, chat.SenderUser, history.Turns[0].Sender)
	assert.Equal(t, chat.SenderCompanion, history.Turns[1].Sender)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	r, s := setupRouter(t)

	rec := do(r, http.MethodPost, "/messages", `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	turns, err := s.ListTurns(context.Background(), "u1", 0, store.Ascending)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestHistoryValidatesLimit(t *testing.T) {
	r, _ := setupRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/conversations?limit=zero", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/conversations?limit=-3", "").Code)

	rec := do(r, http.MethodGet, "/conversations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"turns":[]}`, rec.Body.String())
}

func TestMoodSummary(t *testing.T) {
	r, _ := setupRouter(t)

	rec := do(r, http.MethodGet, "/mood-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "We haven't shared many conversations yet.")

	do(r, http.MethodPost, "/messages", `{"content":"what a wonderful day"}`)
	rec = do(r, http.MethodGet, "/mood-summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "100.0% happy moments")
}
