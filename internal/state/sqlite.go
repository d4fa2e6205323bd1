package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/khaista/boutique/storage/db"
)

// SQLiteStore keeps state in the client_state table.
type SQLiteStore struct {
	queries *db.Queries
	now     func() time.Time
}

func NewSQLiteStore(queries *db.Queries) *SQLiteStore {
	return &SQLiteStore{queries: queries, now: time.Now}
}

func (s *SQLiteStore) Load(ctx context.Context, namespace, key string) ([]byte, error) {
	row, err := s.queries.GetClientState(ctx, db.GetClientStateParams{
		Namespace: namespace,
		StateKey:  key,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s state: %w", namespace, err)
	}
	return row.Data, nil
}

func (s *SQLiteStore) Save(ctx context.Context, namespace, key string, data []byte) error {
	err := s.queries.UpsertClientState(ctx, db.UpsertClientStateParams{
		Namespace: namespace,
		StateKey:  key,
		Data:      data,
		UpdatedAt: s.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to save %s state: %w", namespace, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, namespace, key string) error {
	err := s.queries.DeleteClientState(ctx, db.DeleteClientStateParams{
		Namespace: namespace,
		StateKey:  key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s state: %w", namespace, err)
	}
	return nil
}

// PruneBefore removes state last written before cutoff (unix seconds).
func (s *SQLiteStore) PruneBefore(ctx context.Context, cutoff int64) (int64, error) {
	n, err := s.queries.DeleteClientStateBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune client state: %w", err)
	}
	return n, nil
}
