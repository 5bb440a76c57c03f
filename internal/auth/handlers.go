package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ocastro-backend/internal/db"
)

type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Handlers serves /api/auth. TTL bounds issued tokens.
type Handlers struct {
	DB     *db.DB
	Secret []byte
	TTL    time.Duration
}

func (h Handlers) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Email == "" || body.Password == "" {
			http.Error(w, "email & password required", http.StatusBadRequest)
			return
		}

		var exists int
		_ = h.DB.QueryRowContext(r.Context(),
			h.DB.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), body.Email,
		).Scan(&exists)
		if exists > 0 {
			http.Error(w, "email already registered", http.StatusBadRequest)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "could not hash password", http.StatusInternalServerError)
			return
		}

		now := time.Now().UTC()
		var id int
		err = h.DB.QueryRowContext(r.Context(), h.DB.Rebind(`
			INSERT INTO users (name, email, password, created_at)
			VALUES (?, ?, ?, ?)
			RETURNING id
		`), strings.TrimSpace(body.Name), body.Email, string(hash), now.UnixMilli()).Scan(&id)
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "User created successfully",
			"user": User{
				ID:        id,
				Name:      strings.TrimSpace(body.Name),
				Email:     body.Email,
				CreatedAt: now.Format(time.RFC3339),
			},
		})
	}
}

func (h Handlers) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, hash, err := h.findUser(r, `email = ?`, strings.ToLower(strings.TrimSpace(body.Email)))
		if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
			http.Error(w, "invalid login", http.StatusUnauthorized)
			return
		}

		token, err := GenerateToken(h.Secret, u.ID, h.TTL)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": token,
			"user":         u,
		})
	}
}

func (h Handlers) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, _, err := h.findUser(r, `id = ?`, uid)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "db error: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(u)
	}
}

func (h Handlers) findUser(r *http.Request, cond string, arg any) (User, string, error) {
	var (
		u       User
		hash    string
		created int64
	)
	err := h.DB.QueryRowContext(r.Context(),
		h.DB.Rebind(`SELECT id, name, email, password, created_at FROM users WHERE `+cond), arg,
	).Scan(&u.ID, &u.Name, &u.Email, &hash, &created)
	if err != nil {
		return User{}, "", err
	}
	u.CreatedAt = time.UnixMilli(created).UTC().Format(time.RFC3339)
	return u, hash, nil
}
