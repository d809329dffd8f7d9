package projectstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"tonide/internal/workspace"
)

const projectColumns = `id, name, template, abi, contract_boc, created_at, updated_at`

func (s *Store) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS projects (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT 'Project',
  template TEXT NOT NULL DEFAULT 'tonBlank',
  abi JSONB,
  contract_boc TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS project_nodes (
  project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  path TEXT NOT NULL,
  parent TEXT NOT NULL DEFAULT '',
  position SERIAL,
  PRIMARY KEY (project_id, id),
  CONSTRAINT project_nodes_path_key UNIQUE (project_id, path) DEFERRABLE INITIALLY DEFERRED
);
CREATE INDEX IF NOT EXISTS idx_project_nodes_parent ON project_nodes (project_id, parent);
`)
	})
	return s.schemaErr
}

func (s *Store) createDB(ctx context.Context, p workspace.Project, nodes []workspace.TreeNode) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	abi, err := encodeABI(p.ABI)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO projects (`+projectColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, string(p.Template), abi, p.ContractBOC, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyExists
	}
	if err := upsertNodes(ctx, tx, p.ID, nodes); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) getDB(ctx context.Context, projectID string) (workspace.Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return workspace.Project{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, strings.TrimSpace(projectID))
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workspace.Project{}, ErrNotFound
	}
	return p, err
}

func (s *Store) listDB(ctx context.Context) ([]workspace.Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]workspace.Project, 0, 32)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) updateDB(ctx context.Context, projectID string, update func(*workspace.Project)) (workspace.Project, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return workspace.Project{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return workspace.Project{}, err
	}
	defer func() { _ = tx.Rollback() }()

	id := strings.TrimSpace(projectID)
	row := tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id)
	cur, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workspace.Project{}, ErrNotFound
	}
	if err != nil {
		return workspace.Project{}, err
	}
	created := cur.CreatedAt
	if update != nil {
		update(&cur)
	}
	cur.ID = id
	cur.CreatedAt = created
	cur.UpdatedAt = time.Now().UTC()
	cur = workspace.NormalizeProject(cur)

	abi, err := encodeABI(cur.ABI)
	if err != nil {
		return workspace.Project{}, err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE projects
SET name=$2, template=$3, abi=$4, contract_boc=$5, updated_at=$6
WHERE id=$1`,
		cur.ID, cur.Name, string(cur.Template), abi, cur.ContractBOC, cur.UpdatedAt)
	if err != nil {
		return workspace.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return workspace.Project{}, err
	}
	return cur, nil
}

func (s *Store) deleteDB(ctx context.Context, projectID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, strings.TrimSpace(projectID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) nodesDB(ctx context.Context, projectID string) ([]workspace.TreeNode, error) {
	if _, err := s.getDB(ctx, projectID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, type, path, parent
FROM project_nodes
WHERE project_id = $1
ORDER BY position`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]workspace.TreeNode, 0, 32)
	for rows.Next() {
		var (
			n   workspace.TreeNode
			typ string
		)
		if err := rows.Scan(&n.ID, &n.Name, &typ, &n.Path, &n.Parent); err != nil {
			return nil, err
		}
		n.Type = workspace.NodeType(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) putNodesDB(ctx context.Context, projectID string, nodes []workspace.TreeNode) error {
	pid := strings.TrimSpace(projectID)
	if _, err := s.getDB(ctx, pid); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := upsertNodes(ctx, tx, pid, nodes); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = NOW() WHERE id = $1`, pid); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) deleteNodesDB(ctx context.Context, projectID string, ids []string) error {
	pid := strings.TrimSpace(projectID)
	if _, err := s.getDB(ctx, pid); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_nodes WHERE project_id = $1 AND id = $2`, pid, strings.TrimSpace(id)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = NOW() WHERE id = $1`, pid); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertNodes(ctx context.Context, tx *sql.Tx, projectID string, nodes []workspace.TreeNode) error {
	for _, n := range nodes {
		_, err := tx.ExecContext(ctx, `
INSERT INTO project_nodes (project_id, id, name, type, path, parent)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (project_id, id)
DO UPDATE SET name=EXCLUDED.name, type=EXCLUDED.type, path=EXCLUDED.path, parent=EXCLUDED.parent`,
			projectID, n.ID, n.Name, string(n.Type), n.Path, n.Parent)
		if err != nil {
			return err
		}
	}
	return nil
}
