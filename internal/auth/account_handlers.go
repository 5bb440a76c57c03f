package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"ocastro-backend/internal/db"
)

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Tokens are stateless; the client drops its copy.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}

// Eraser removes per-user data kept outside the database transaction,
// such as cached or file-backed vocabularies.
type Eraser interface {
	Forget(ctx context.Context, userID int) error
}

// DeleteAccountHandler runs the erasers before deleting the user's rows, so
// a failure leaves the account in place and the request can be retried.
func DeleteAccountHandler(dbx *db.DB, erasers ...Eraser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		for _, e := range erasers {
			if err := e.Forget(r.Context(), uid); err != nil {
				http.Error(w, "delete user data failed", http.StatusInternalServerError)
				return
			}
		}

		tx, err := dbx.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, "db begin failed", http.StatusInternalServerError)
			return
		}
		defer tx.Rollback()

		steps := []struct {
			query string
			fail  string
		}{
			{`DELETE FROM user_vocabulary WHERE user_id = ?`, "delete user_vocabulary failed"},
			{`DELETE FROM tasks WHERE user_id = ?`, "delete tasks failed"},
			{`DELETE FROM analytics_events WHERE user_id = ?`, "delete analytics_events failed"},
			{`DELETE FROM users WHERE id = ?`, "delete user failed"},
		}
		for _, s := range steps {
			if _, err := tx.ExecContext(r.Context(), dbx.Rebind(s.query), uid); err != nil {
				http.Error(w, s.fail, http.StatusInternalServerError)
				return
			}
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db commit failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
		})
	}
}
