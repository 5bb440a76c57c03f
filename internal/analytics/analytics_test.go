package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocastro-backend/internal/db"
)

func openDB(t *testing.T) *db.DB {
	t.Helper()
	dbx, err := db.OpenSQLite(filepath.Join(t.TempDir(), "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })
	return dbx
}

func countEvents(t *testing.T, dbx *db.DB, name string) int {
	t.Helper()
	var n int
	require.NoError(t, dbx.QueryRow(`SELECT COUNT(*) FROM analytics_events WHERE event_name = ?`, name).Scan(&n))
	return n
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Platform", "WEB")
	r.Header.Set("X-Session-Id", " s1 ")
	r.Header.Set("X-Device-Locale", "pt-BR")

	env := FromRequest(r)
	assert.Equal(t, "web", env.Platform)
	assert.Equal(t, "s1", env.SessionID)
	assert.Equal(t, "pt-BR", env.DeviceLocale)

	r.Header.Set("X-Platform", "toaster")
	assert.Equal(t, "unknown", FromRequest(r).Platform)
}

func TestRecorderLog(t *testing.T) {
	ctx := context.Background()
	dbx := openDB(t)
	rec := NewRecorder(dbx)

	require.NoError(t, rec.Log(ctx, Envelope{UserID: 1, Platform: "web"}, "voice_command", map[string]any{"intent": "create_task"}, ""))
	assert.Equal(t, 1, countEvents(t, dbx, "voice_command"))

	// Duplicate idempotency keys are ignored.
	require.NoError(t, rec.Log(ctx, Envelope{UserID: 1}, "app_opened", nil, "k1"))
	require.NoError(t, rec.Log(ctx, Envelope{UserID: 1}, "app_opened", nil, "k1"))
	assert.Equal(t, 1, countEvents(t, dbx, "app_opened"))

	// No user, no event.
	require.NoError(t, rec.Log(ctx, Envelope{}, "orphan", nil, ""))
	assert.Equal(t, 0, countEvents(t, dbx, "orphan"))

	// User taken from context.
	require.NoError(t, rec.Log(WithUserID(ctx, 9), Envelope{}, "ctx_user", nil, ""))
	assert.Equal(t, 1, countEvents(t, dbx, "ctx_user"))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NoError(t, rec.Log(context.Background(), Envelope{UserID: 1}, "x", nil, ""))
}

func TestVoiceReplyPlayedHandler(t *testing.T) {
	dbx := openDB(t)
	h := VoiceReplyPlayedHandler(NewRecorder(dbx))

	r := httptest.NewRequest(http.MethodPost, "/api/analytics/voice-reply-played", strings.NewReader(`{"intent":"list_today_tasks","completed":true}`))
	w := httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/api/analytics/voice-reply-played", strings.NewReader(`{"intent":"list_today_tasks","completed":true}`))
	r = r.WithContext(WithUserID(r.Context(), 3))
	w = httptest.NewRecorder()
	h(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, 1, countEvents(t, dbx, "voice_reply_played"))
}
