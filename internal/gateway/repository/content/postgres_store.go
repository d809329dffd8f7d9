package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tonide/internal/workspace"
)

type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS file_contents (
    project_id TEXT NOT NULL,
    id TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    size BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    PRIMARY KEY (project_id, id)
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Put(ctx context.Context, projectID string, files ...workspace.FileContent) error {
	if len(files) == 0 {
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	for _, fc := range files {
		pid, id, err := validateKey(projectID, fc.ID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO file_contents (project_id, id, content, size, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (project_id, id)
DO UPDATE SET content=EXCLUDED.content, size=EXCLUDED.size, updated_at=EXCLUDED.updated_at
`, pid, id, fc.Content, len(fc.Content), now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) Get(ctx context.Context, projectID, id string) (workspace.FileContent, error) {
	pid, id, err := validateKey(projectID, id)
	if err != nil {
		return workspace.FileContent{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return workspace.FileContent{}, err
	}
	var body string
	err = s.db.QueryRowContext(ctx, `SELECT content FROM file_contents WHERE project_id=$1 AND id=$2`, pid, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return workspace.FileContent{}, ErrNotFound
	}
	if err != nil {
		return workspace.FileContent{}, err
	}
	return workspace.FileContent{ID: id, Content: body}, nil
}

func (s *PostgresStore) Delete(ctx context.Context, projectID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	pid := strings.TrimSpace(projectID)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM file_contents WHERE project_id=$1 AND id=$2`, pid, strings.TrimSpace(id)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) List(ctx context.Context, projectID string) ([]string, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("project_id is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM file_contents WHERE project_id=$1 ORDER BY id`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
