package projectstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tonide/internal/workspace"
)

// Store keeps project records and their file trees. It is backed by a JSON
// file (or memory when the path is empty) or by Postgres.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	byID     map[string]record

	schemaOnce sync.Once
	schemaErr  error

	treeCache *lru.Cache[string, []workspace.TreeNode]
}

func New(path string) *Store {
	return &Store{
		path: strings.TrimSpace(path),
		byID: make(map[string]record),
	}
}

func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db)
}

func NewWithDB(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	cache, err := lru.New[string, []workspace.TreeNode](512)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, treeCache: cache}, nil
}

func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) EnsureLoaded(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if s.db != nil {
		return s.ensureSchema(ctx)
	}
	return s.ensureLoadedFile()
}

// Create stores a new project together with its tree.
func (s *Store) Create(ctx context.Context, p workspace.Project, nodes []workspace.TreeNode) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	p = workspace.NormalizeProject(p)
	if p.ID == "" {
		return fmt.Errorf("project id is required")
	}
	if s.db != nil {
		return s.createDB(ctx, p, normalizeNodes(nodes))
	}
	return s.createFile(p, normalizeNodes(nodes))
}

func (s *Store) Get(ctx context.Context, projectID string) (workspace.Project, error) {
	if s == nil {
		return workspace.Project{}, fmt.Errorf("store is nil")
	}
	if s.db != nil {
		return s.getDB(ctx, projectID)
	}
	return s.getFile(projectID)
}

// List returns projects ordered by creation time.
func (s *Store) List(ctx context.Context) ([]workspace.Project, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if s.db != nil {
		return s.listDB(ctx)
	}
	return s.listFile()
}

func (s *Store) Update(ctx context.Context, projectID string, update func(*workspace.Project)) (workspace.Project, error) {
	if s == nil {
		return workspace.Project{}, fmt.Errorf("store is nil")
	}
	if s.db != nil {
		return s.updateDB(ctx, projectID, update)
	}
	return s.updateFile(projectID, update)
}

// SetBuildOutput overwrites the ABI and contract BOC in one update.
func (s *Store) SetBuildOutput(ctx context.Context, projectID string, abi *workspace.ABI, contractBOC string) error {
	_, err := s.Update(ctx, projectID, func(p *workspace.Project) {
		p.ABI = abi
		p.ContractBOC = contractBOC
	})
	return err
}

// Delete removes the project and every node of its tree.
func (s *Store) Delete(ctx context.Context, projectID string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if s.db != nil {
		err := s.deleteDB(ctx, projectID)
		s.treeCache.Remove(strings.TrimSpace(projectID))
		return err
	}
	return s.deleteFile(projectID)
}

func (s *Store) Nodes(ctx context.Context, projectID string) ([]workspace.TreeNode, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if s.db == nil {
		return s.nodesFile(projectID)
	}
	pid := strings.TrimSpace(projectID)
	if cached, ok := s.treeCache.Get(pid); ok {
		return append([]workspace.TreeNode(nil), cached...), nil
	}
	nodes, err := s.nodesDB(ctx, pid)
	if err != nil {
		return nil, err
	}
	s.treeCache.Add(pid, append([]workspace.TreeNode(nil), nodes...))
	return nodes, nil
}

// PutNodes inserts or replaces nodes by id.
func (s *Store) PutNodes(ctx context.Context, projectID string, nodes ...workspace.TreeNode) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if len(nodes) == 0 {
		return nil
	}
	for _, n := range nodes {
		if strings.TrimSpace(n.ID) == "" {
			return fmt.Errorf("node id is required")
		}
	}
	if s.db != nil {
		err := s.putNodesDB(ctx, projectID, normalizeNodes(nodes))
		s.treeCache.Remove(strings.TrimSpace(projectID))
		return err
	}
	return s.putNodesFile(projectID, normalizeNodes(nodes))
}

func (s *Store) DeleteNodes(ctx context.Context, projectID string, ids ...string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if len(ids) == 0 {
		return nil
	}
	if s.db != nil {
		err := s.deleteNodesDB(ctx, projectID, ids)
		s.treeCache.Remove(strings.TrimSpace(projectID))
		return err
	}
	return s.deleteNodesFile(projectID, ids)
}
