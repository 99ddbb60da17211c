package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfanityStore struct {
	db *pgxpool.Pool
}

func NewProfanityStore(db *pgxpool.Pool) *ProfanityStore {
	return &ProfanityStore{db: db}
}

func (s *ProfanityStore) ListBannedWords(ctx context.Context) ([]string, error) {
	query := `SELECT word FROM banned_words WHERE approved = true`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}

	return words, nil
}
