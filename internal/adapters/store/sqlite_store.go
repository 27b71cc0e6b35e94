package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/email-classifier/internal/ports"
	"go.uber.org/zap"
)

// SQLiteStore keeps artifacts as rows in a SQLite database
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens the database and creates the artifact table
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS model_artifacts (
			name TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// WriteAll replaces every stored artifact in one transaction
func (s *SQLiteStore) WriteAll(ctx context.Context, artifacts map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM model_artifacts`); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for name, data := range artifacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_artifacts (name, data, updated_at)
			VALUES (?, ?, ?)
		`, name, data, now)
		if err != nil {
			return fmt.Errorf("failed to insert artifact %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifacts: %w", err)
	}
	s.logger.Debug("Wrote artifacts to SQLite", zap.Int("count", len(artifacts)))
	return nil
}

// Read returns the named artifact
func (s *SQLiteStore) Read(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM model_artifacts WHERE name = ?
	`, name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ports.ErrArtifactNotFound, name)
		}
		return nil, fmt.Errorf("failed to query artifact %s: %w", name, err)
	}
	return data, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
		return err
	}
	return nil
}
