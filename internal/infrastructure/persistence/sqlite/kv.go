// Package sqlite persists named application slots in the local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/pkg/database"
)

// KVStore keeps one serialized value per slot name in the kv_slots table
type KVStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewKVStore creates a slot store on a migrated database
func NewKVStore(db *database.DB, logger *zap.Logger) *KVStore {
	return &KVStore{
		db:     db,
		logger: logger,
	}
}

// Get returns the slot value and whether it exists
func (s *KVStore) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_slots WHERE name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Error("Failed to read slot", zap.String("slot", name), zap.Error(err))
		return nil, false, fmt.Errorf("failed to read slot %s: %w", name, err)
	}
	return value, true, nil
}

// Set replaces the slot value
func (s *KVStore) Set(ctx context.Context, name string, value []byte) error {
	query := `
		INSERT INTO kv_slots (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		s.logger.Error("Failed to write slot", zap.String("slot", name), zap.Error(err))
		return fmt.Errorf("failed to write slot %s: %w", name, err)
	}
	return nil
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (s *KVStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_slots WHERE name = ?", name); err != nil {
		s.logger.Error("Failed to delete slot", zap.String("slot", name), zap.Error(err))
		return fmt.Errorf("failed to delete slot %s: %w", name, err)
	}
	return nil
}
