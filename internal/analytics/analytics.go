package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"ocastro-backend/internal/db"
)

type CtxKey string

const (
	ctxUserIDKey CtxKey = "analytics_user_id"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID       int
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
	IPCountry    string
}

// FromRequest extracts event envelope fields from request.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web", "cli":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	return Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
}

func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(ctxUserIDKey)
	if v == nil {
		return 0, false
	}
	uid, ok := v.(int)
	return uid, ok
}

// SourceEventKeyFromRequest returns the client idempotency key, if any.
// Duplicate keys are ignored on insert.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Recorder writes events to analytics_events. A nil *Recorder drops events.
type Recorder struct {
	db  *db.DB
	now func() time.Time
}

func NewRecorder(dbx *db.DB) *Recorder {
	return &Recorder{db: dbx, now: time.Now}
}

// Log inserts one analytics event.
// Never logs raw utterances; callers pass sanitized props.
func (rec *Recorder) Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) error {
	if rec == nil || eventName == "" {
		return nil
	}

	userID := env.UserID
	if userID == 0 {
		uid, ok := UserIDFromContext(ctx)
		if !ok {
			return nil
		}
		userID = uid
	}

	b, err := json.Marshal(props)
	if err != nil {
		return nil
	}

	args := []any{
		eventName, rec.now().UTC().UnixMilli(),
		userID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale), nullIfEmpty(env.IPCountry),
		nullIfEmpty(sourceEventKey),
		string(b),
	}

	q := `
		INSERT INTO analytics_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version, device_locale, ip_country,
			source_event_key,
			properties
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if sourceEventKey != "" {
		q += ` ON CONFLICT (source_event_key) DO NOTHING`
	}

	_, err = rec.db.ExecContext(ctx, rec.db.Rebind(q), args...)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
