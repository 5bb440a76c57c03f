package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Vocabulary maps a learned phrase to its meaning. Both sides are lowercase.
type Vocabulary map[string]string

// Store persists one Vocabulary per user. Load returns an empty,
// non-nil Vocabulary for a user who never learned anything.
type Store interface {
	Load(ctx context.Context, userID int) (Vocabulary, error)
	Save(ctx context.Context, userID int, v Vocabulary) error
	// Forget removes everything stored for the user. Forgetting a user
	// with no vocabulary is not an error.
	Forget(ctx context.Context, userID int) error
}

// Apply rewrites every learned phrase in text to its meaning. Longer phrases
// are replaced first so multi-word phrases win over their substrings.
func Apply(text string, v Vocabulary) string {
	text = strings.ToLower(text)
	if len(v) == 0 {
		return text
	}

	phrases := make([]string, 0, len(v))
	for p := range v {
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	sort.Slice(phrases, func(i, j int) bool {
		li, lj := len([]rune(phrases[i])), len([]rune(phrases[j]))
		if li != lj {
			return li > lj
		}
		return phrases[i] < phrases[j]
	})

	for _, p := range phrases {
		if strings.Contains(text, p) {
			text = strings.ToLower(strings.ReplaceAll(text, p, v[p]))
		}
	}
	return text
}

// ErrEmptyEntry is returned by Learn when phrase or meaning is blank.
var ErrEmptyEntry = errors.New("phrase and meaning are required")

// Service applies and learns vocabulary on top of a Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Rewrite loads the user's vocabulary and applies it to text.
func (s *Service) Rewrite(ctx context.Context, userID int, text string) (string, error) {
	v, err := s.store.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load vocabulary: %w", err)
	}
	return Apply(text, v), nil
}

// Learn stores phrase -> meaning for the user, overwriting any previous meaning.
func (s *Service) Learn(ctx context.Context, userID int, phrase, meaning string) error {
	phrase = normalize(phrase)
	meaning = normalize(meaning)
	if phrase == "" || meaning == "" {
		return ErrEmptyEntry
	}

	v, err := s.store.Load(ctx, userID)
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}
	if v == nil {
		v = Vocabulary{}
	}
	v[phrase] = meaning

	if err := s.store.Save(ctx, userID, v); err != nil {
		return fmt.Errorf("save vocabulary: %w", err)
	}
	return nil
}

// List returns the user's vocabulary.
func (s *Service) List(ctx context.Context, userID int) (Vocabulary, error) {
	return s.store.Load(ctx, userID)
}

// Forget drops the user's whole vocabulary.
func (s *Service) Forget(ctx context.Context, userID int) error {
	if err := s.store.Forget(ctx, userID); err != nil {
		return fmt.Errorf("forget vocabulary: %w", err)
	}
	return nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
