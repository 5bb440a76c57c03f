package vocabulary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON document per user under Dir,
// named vocabulary_<id>.json.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(userID int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("vocabulary_%d.json", userID))
}

func (s *FileStore) Load(_ context.Context, userID int) (Vocabulary, error) {
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return Vocabulary{}, nil
	}
	if err != nil {
		return nil, err
	}

	v := Vocabulary{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path(userID), err)
	}
	return v, nil
}

// Save writes to a temp file and renames it over the old one.
func (s *FileStore) Save(_ context.Context, userID int, v Vocabulary) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.Dir, "vocabulary-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(userID))
}

func (s *FileStore) Forget(_ context.Context, userID int) error {
	if err := os.Remove(s.path(userID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
