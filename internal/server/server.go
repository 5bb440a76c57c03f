// Package server wires the HTTP routes and runs the listener.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"ocastro-backend/internal/analytics"
	"ocastro-backend/internal/auth"
	"ocastro-backend/internal/calendar"
	"ocastro-backend/internal/db"
	"ocastro-backend/internal/tasks"
	"ocastro-backend/internal/vocabulary"
	"ocastro-backend/internal/voice"
)

type Deps struct {
	DB             *db.DB
	Auth           auth.Middleware
	AuthHandlers   auth.Handlers
	Tasks          tasks.Handlers
	Calendar       calendar.Service
	Vocabulary     *vocabulary.Service
	Voice          voice.Handler
	Analytics      *analytics.Recorder
	AllowedOrigins []string
	Logger         *zap.Logger
}

func Routes(d Deps) http.Handler {
	mux := http.NewServeMux()
	wrap := d.Auth.Wrap

	// Health endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", d.AuthHandlers.Register())
	mux.HandleFunc("POST /api/auth/login", d.AuthHandlers.Login())
	mux.HandleFunc("GET /api/auth/me", wrap(d.AuthHandlers.Me()))
	mux.HandleFunc("POST /api/auth/logout", wrap(auth.LogoutHandler()))
	var erasers []auth.Eraser
	if d.Vocabulary != nil {
		erasers = append(erasers, d.Vocabulary)
	}
	mux.HandleFunc("DELETE /api/auth/account", wrap(auth.DeleteAccountHandler(d.DB, erasers...)))

	mux.HandleFunc("GET /api/tasks", wrap(d.Tasks.List()))
	mux.HandleFunc("POST /api/tasks", wrap(d.Tasks.Create()))
	mux.HandleFunc("GET /api/tasks/{id}", wrap(d.Tasks.Get()))
	mux.HandleFunc("PUT /api/tasks/{id}", wrap(d.Tasks.Update()))
	mux.HandleFunc("DELETE /api/tasks/{id}", wrap(d.Tasks.Delete()))
	mux.HandleFunc("PATCH /api/tasks/{id}/status", wrap(d.Tasks.SetStatus()))

	mux.HandleFunc("GET /api/calendar/summary", wrap(calendar.SummaryHandler(d.Calendar)))
	mux.HandleFunc("GET /api/calendar/day/{date}", wrap(calendar.DayHandler(d.Calendar)))

	mux.HandleFunc("GET /api/vocabulary", wrap(vocabulary.ListHandler(d.Vocabulary)))
	mux.HandleFunc("POST /api/vocabulary", wrap(vocabulary.LearnHandler(d.Vocabulary)))

	mux.HandleFunc("POST /api/voice/command", d.Auth.Optional(d.Voice.Command()))

	mux.HandleFunc("POST /api/analytics/app-opened", wrap(analytics.AppOpenedHandler(d.Analytics)))
	mux.HandleFunc("POST /api/analytics/voice-reply-played", wrap(analytics.VoiceReplyPlayedHandler(d.Analytics)))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id", "X-Platform", "X-Session-Id", "X-App-Version", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	})

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return RequestID(AccessLog(logger.Named("http"))(c.Handler(mux)))
}

// Serve runs srv until ctx is cancelled, accepting at most maxConns
// connections at once, then shuts down gracefully.
func Serve(ctx context.Context, srv *http.Server, maxConns int) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
