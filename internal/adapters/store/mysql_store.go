package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/email-classifier/internal/ports"
	"go.uber.org/zap"
)

// MySQLStore keeps artifacts as rows in a MySQL table
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and creates the artifact table
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS model_artifacts (
			name VARCHAR(255) PRIMARY KEY,
			data LONGBLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// WriteAll replaces every stored artifact in one transaction
func (s *MySQLStore) WriteAll(ctx context.Context, artifacts map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM model_artifacts`); err != nil {
		return fmt.Errorf("failed to clear artifacts: %w", err)
	}

	for name, data := range artifacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_artifacts (name, data) VALUES (?, ?)
		`, name, data)
		if err != nil {
			return fmt.Errorf("failed to insert artifact %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit artifacts: %w", err)
	}
	s.logger.Debug("Wrote artifacts to MySQL", zap.Int("count", len(artifacts)))
	return nil
}

// Read returns the named artifact
func (s *MySQLStore) Read(ctx context.Context, name string) ([]byte, error) {
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
func (s *MySQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
		return err
	}
	return nil
}
