package vocabulary

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"ocastro-backend/internal/auth"
)

type Entry struct {
	Phrase  string `json:"phrase"`
	Meaning string `json:"meaning"`
}

func entries(v Vocabulary) []Entry {
	out := make([]Entry, 0, len(v))
	for p, m := range v {
		out = append(out, Entry{Phrase: p, Meaning: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phrase < out[j].Phrase })
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// ListHandler serves GET /api/vocabulary.
func ListHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		v, err := svc.List(r.Context(), uid)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": entries(v)})
	}
}

// LearnHandler serves POST /api/vocabulary.
func LearnHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body Entry
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.Learn(r.Context(), uid, body.Phrase, body.Meaning); err != nil {
			if errors.Is(err, ErrEmptyEntry) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"data":    Entry{Phrase: normalize(body.Phrase), Meaning: normalize(body.Meaning)},
		})
	}
}
