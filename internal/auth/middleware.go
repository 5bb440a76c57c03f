package auth

import (
	"context"
	"net/http"
	"strings"

	"ocastro-backend/internal/analytics"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

type Middleware struct {
	secret []byte
	// fallbackUserID serves unauthenticated voice clients; 0 disables it.
	fallbackUserID int
}

func New(secret []byte, fallbackUserID int) Middleware {
	return Middleware{secret: secret, fallbackUserID: fallbackUserID}
}

// Wrap rejects requests without a valid bearer token.
func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := ParseToken(m.secret, strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(withUser(r.Context(), userID)))
	}
}

// Optional accepts a bearer token when present and otherwise uses the
// fallback user. An invalid token is still rejected.
func (m Middleware) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			m.Wrap(next)(w, r)
			return
		}

		if m.fallbackUserID == 0 {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		next(w, r.WithContext(withUser(r.Context(), m.fallbackUserID)))
	}
}

func withUser(ctx context.Context, userID int) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return analytics.WithUserID(ctx, userID)
}

// WithUserID is used by callers outside HTTP (CLI, tests).
func WithUserID(ctx context.Context, userID int) context.Context {
	return withUser(ctx, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return 0, false
	}
	uid, ok := v.(int)
	return uid, ok
}
