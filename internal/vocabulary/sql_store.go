package vocabulary

import (
	"context"

	"ocastro-backend/internal/db"
)

// SQLStore keeps vocabularies in the user_vocabulary table.
type SQLStore struct {
	db *db.DB
}

func NewSQLStore(dbx *db.DB) *SQLStore {
	return &SQLStore{db: dbx}
}

func (s *SQLStore) Load(ctx context.Context, userID int) (Vocabulary, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT phrase, meaning FROM user_vocabulary WHERE user_id = ?`),
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	v := Vocabulary{}
	for rows.Next() {
		var phrase, meaning string
		if err := rows.Scan(&phrase, &meaning); err != nil {
			return nil, err
		}
		v[phrase] = meaning
	}
	return v, rows.Err()
}

// Save replaces the user's whole vocabulary in one transaction.
func (s *SQLStore) Save(ctx context.Context, userID int, v Vocabulary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM user_vocabulary WHERE user_id = ?`),
		userID,
	); err != nil {
		return err
	}

	insert := s.db.Rebind(`
		INSERT INTO user_vocabulary (user_id, phrase, meaning)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, phrase) DO UPDATE SET meaning = excluded.meaning
	`)
	for phrase, meaning := range v {
		if _, err := tx.ExecContext(ctx, insert, userID, phrase, meaning); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLStore) Forget(ctx context.Context, userID int) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM user_vocabulary WHERE user_id = ?`), userID)
	return err
}
