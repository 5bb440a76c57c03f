package analytics

import (
	"encoding/json"
	"net/http"
)

// app_opened: the client was opened.
func AppOpenedHandler(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			ColdStart bool   `json:"cold_start"`
			From      string `json:"from"` // push/deeplink/icon/unknown
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		env := FromRequest(r)
		env.UserID = uid

		props := map[string]any{
			"cold_start": body.ColdStart,
			"from":       body.From,
		}

		_ = rec.Log(r.Context(), env, "app_opened", props, SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}

// voice_reply_played: the client finished (or skipped) playing a spoken reply.
func VoiceReplyPlayedHandler(rec *Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Intent     string `json:"intent"`
			Completed  bool   `json:"completed"`
			DurationMs int    `json:"duration_ms"`
			VoiceID    string `json:"voice_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		env := FromRequest(r)
		env.UserID = uid

		props := map[string]any{
			"intent":      body.Intent,
			"completed":   body.Completed,
			"duration_ms": body.DurationMs,
			"voice_id":    body.VoiceID,
		}

		_ = rec.Log(r.Context(), env, "voice_reply_played", props, SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
