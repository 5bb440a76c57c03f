// Package voice serves POST /api/voice/command: audio or text in, an
// interpreted command and a spoken reply out.
package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"ocastro-backend/internal/analytics"
	"ocastro-backend/internal/auth"
	"ocastro-backend/internal/events"
	"ocastro-backend/internal/intent"
	"ocastro-backend/internal/interpreter"
	"ocastro-backend/internal/metrics"
	"ocastro-backend/internal/speech"
)

const msgNoSpeech = "Não consegui ouvir nada. Tente novamente."

const defaultMaxUpload = 10 << 20

type Interpreter interface {
	Interpret(ctx context.Context, userID int, text string) (interpreter.Result, error)
}

type Handler struct {
	Interpreter Interpreter
	// Transcriber and Synthesizer are optional. Without a transcriber audio
	// uploads are rejected; without a synthesizer audio_base64 is null.
	Transcriber    speech.Transcriber
	Synthesizer    speech.Synthesizer
	Analytics      *analytics.Recorder
	Events         events.Publisher
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// Response is an interpreter.Result plus the voice-specific fields.
type Response struct {
	interpreter.Result
	Success       bool    `json:"success"`
	Transcription string  `json:"transcription,omitempty"`
	AudioBase64   *string `json:"audio_base64"`
}

type noSpeechResponse struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	AudioBase64 *string `json:"audio_base64"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// Command handles multipart uploads (field "audio", optional "voiceId")
// and JSON bodies {"text", "voiceId"}.
func (h Handler) Command() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			h.audioCommand(w, r, uid)
			return
		}

		var body struct {
			Text    *string `json:"text"`
			VoiceID string  `json:"voiceId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Text == nil {
			writeError(w, http.StatusBadRequest, "No audio file or text provided")
			return
		}

		start := time.Now()
		res, err := h.Interpreter.Interpret(r.Context(), uid, *body.Text)
		if err != nil {
			h.failed(w, r, uid, "text", start, err)
			return
		}

		out := Response{Result: res, Success: true}
		if res.TriggerAudio {
			out.AudioBase64 = h.synthesize(r.Context(), res.Message, body.VoiceID)
		}
		h.record(r, uid, "text", res.Intent, metrics.StatusOK, start)
		writeJSON(w, http.StatusOK, out)
	}
}

func (h Handler) audioCommand(w http.ResponseWriter, r *http.Request, uid int) {
	limit := h.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Audio file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No audio file or text provided")
		return
	}
	voiceID := r.FormValue("voiceId")

	file, header, err := r.FormFile("audio")
	if err != nil {
		// A part sent without a filename is parsed as a plain value.
		if _, sent := r.MultipartForm.Value["audio"]; sent || !errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		writeError(w, http.StatusBadRequest, "No audio file or text provided")
		return
	}
	defer file.Close()
	if h.Transcriber == nil {
		writeError(w, http.StatusServiceUnavailable, "Speech recognition is not configured")
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	start := time.Now()
	text, err := h.Transcriber.Transcribe(r.Context(), audio, header.Filename)
	if err != nil {
		if !errors.Is(err, speech.ErrNoSpeech) {
			metrics.SpeechErrorsTotal.WithLabelValues("transcribe").Inc()
			h.logger().Warn("Transcription failed", zap.Int("user_id", uid), zap.Error(err))
		}
		h.record(r, uid, "audio", "", metrics.StatusNoAudio, start)
		writeJSON(w, http.StatusOK, noSpeechResponse{
			Success:     false,
			Message:     msgNoSpeech,
			AudioBase64: h.synthesize(r.Context(), msgNoSpeech, voiceID),
		})
		return
	}

	res, err := h.Interpreter.Interpret(r.Context(), uid, text)
	if err != nil {
		h.failed(w, r, uid, "audio", start, err)
		return
	}

	h.record(r, uid, "audio", res.Intent, metrics.StatusOK, start)
	writeJSON(w, http.StatusOK, Response{
		Result:        res,
		Success:       true,
		Transcription: text,
		AudioBase64:   h.synthesize(r.Context(), res.Message, voiceID),
	})
}

// synthesize returns nil when no audio could be produced; the text reply
// still goes out.
func (h Handler) synthesize(ctx context.Context, text, voiceID string) *string {
	if h.Synthesizer == nil || text == "" {
		return nil
	}
	audio, err := h.Synthesizer.Synthesize(ctx, text, voiceID)
	if err != nil {
		metrics.SpeechErrorsTotal.WithLabelValues("synthesize").Inc()
		h.logger().Warn("Speech synthesis failed", zap.Error(err))
		return nil
	}
	s := base64.StdEncoding.EncodeToString(audio)
	return &s
}

func (h Handler) failed(w http.ResponseWriter, r *http.Request, uid int, source string, start time.Time, err error) {
	h.logger().Error("Command failed", zap.Int("user_id", uid), zap.String("source", source), zap.Error(err))
	h.record(r, uid, source, "", metrics.StatusError, start)
	writeError(w, http.StatusInternalServerError, "Failed to process command")
}

// record updates metrics, analytics and the event stream. The utterance
// itself is never recorded.
func (h Handler) record(r *http.Request, uid int, source string, tag intent.Tag, status string, start time.Time) {
	elapsed := time.Since(start)
	label := string(tag)
	if label == "" {
		label = "none"
	}
	metrics.VoiceCommandsTotal.WithLabelValues(label, status).Inc()
	metrics.VoiceLatency.Observe(elapsed.Seconds())

	env := analytics.FromRequest(r)
	env.UserID = uid
	props := map[string]any{
		"intent":     label,
		"source":     source,
		"status":     status,
		"latency_ms": elapsed.Milliseconds(),
	}
	if err := h.Analytics.Log(r.Context(), env, "voice_command", props, analytics.SourceEventKeyFromRequest(r)); err != nil {
		h.logger().Warn("Analytics insert failed", zap.Error(err))
	}

	if h.Events == nil {
		return
	}
	ev := events.CommandProcessed{
		UserID:     uid,
		Intent:     label,
		Source:     source,
		Success:    status == metrics.StatusOK,
		LatencyMS:  elapsed.Milliseconds(),
		OccurredAt: time.Now().UTC(),
		RequestID:  r.Header.Get("X-Request-Id"),
	}
	if err := h.Events.PublishCommand(ev); err != nil {
		h.logger().Warn("Event publish failed", zap.Error(err))
	}
}
