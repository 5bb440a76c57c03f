package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ocastro-backend/internal/analytics"
	"ocastro-backend/internal/auth"
	"ocastro-backend/internal/calendar"
	"ocastro-backend/internal/db"
	"ocastro-backend/internal/interpreter"
	"ocastro-backend/internal/tasks"
	"ocastro-backend/internal/vocabulary"
	"ocastro-backend/internal/voice"
)

var secret = []byte("test-secret")

func newTestServer(t *testing.T, fallbackUserID int) *httptest.Server {
	t.Helper()
	dbx, err := db.OpenSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	repo := tasks.NewSQLRepository(dbx)
	vocab := vocabulary.NewService(vocabulary.NewSQLStore(dbx))
	rec := analytics.NewRecorder(dbx)
	logger := zaptest.NewLogger(t)

	h := Routes(Deps{
		DB:           dbx,
		Auth:         auth.New(secret, fallbackUserID),
		AuthHandlers: auth.Handlers{DB: dbx, Secret: secret, TTL: time.Hour},
		Tasks:        tasks.Handlers{Repo: repo, Analytics: rec},
		Calendar:     calendar.Service{Tasks: repo},
		Vocabulary:   vocab,
		Voice: voice.Handler{
			Interpreter: interpreter.New(interpreter.Options{Tasks: repo, Vocabulary: vocab, Logger: logger}),
			Analytics:   rec,
			Logger:      logger,
		},
		Analytics:      rec,
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         logger,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, 0)

	res, body := do(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "OK", body)
	assert.NotEmpty(t, res.Header.Get("X-Request-Id"))

	res, body = do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "ocastro_http_requests_total")
}

func TestRequestIDIsPreserved(t *testing.T) {
	srv := newTestServer(t, 0)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "abc-123", res.Header.Get("X-Request-Id"))
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	srv := newTestServer(t, 0)

	for _, path := range []string{"/api/tasks", "/api/vocabulary", "/api/auth/me", "/api/calendar/day/2024-06-01"} {
		res, _ := do(t, http.MethodGet, srv.URL+path, "", "")
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
	}

	res, _ := do(t, http.MethodPost, srv.URL+"/api/voice/command", "", `{"text":"oi"}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "no fallback user configured")
}

func TestVoiceCommandEndToEnd(t *testing.T) {
	srv := newTestServer(t, 0)

	res, _ := do(t, http.MethodPost, srv.URL+"/api/auth/register", "", `{"name":"Ana","email":"ana@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, body := do(t, http.MethodPost, srv.URL+"/api/auth/login", "", `{"email":"ana@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &login))
	token := login.AccessToken

	res, body = do(t, http.MethodPost, srv.URL+"/api/vocabulary", token, `{"phrase":"bota","meaning":"nova tarefa"}`)
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	res, body = do(t, http.MethodPost, srv.URL+"/api/voice/command", token, `{"text":"Bota comprar pão com prioridade alta"}`)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "create_task", out["intent"])
	assert.Equal(t, true, out["trigger_audio"])
	assert.Nil(t, out["audio_base64"])

	res, body = do(t, http.MethodGet, srv.URL+"/api/tasks", token, "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list []struct {
		Title    string         `json:"title"`
		Priority tasks.Priority `json:"priority"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Comprar pão", list[0].Title)
	assert.Equal(t, tasks.PriorityHigh, list[0].Priority)
}

func TestVoiceCommandFallbackUser(t *testing.T) {
	srv := newTestServer(t, 1)

	res, body := do(t, http.MethodPost, srv.URL+"/api/voice/command", "", `{"text":"quem é você"}`)
	require.Equal(t, http.StatusOK, res.StatusCode, body)
	assert.Contains(t, body, `"intent":"identity"`)

	res, _ = do(t, http.MethodPost, srv.URL+"/api/voice/command", "not-a-jwt", `{"text":"oi"}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, 0)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, 4) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
