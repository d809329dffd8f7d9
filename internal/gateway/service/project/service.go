package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tonide/internal/build"
	"tonide/internal/compiler"
	"tonide/internal/gateway/repository/content"
	"tonide/internal/metrics"
	"tonide/internal/resolver"
	"tonide/internal/workspace"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrPathExists   = errors.New("path already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// ProjectStore persists project records and their trees.
type ProjectStore interface {
	Create(ctx context.Context, p workspace.Project, nodes []workspace.TreeNode) error
	Get(ctx context.Context, projectID string) (workspace.Project, error)
	List(ctx context.Context) ([]workspace.Project, error)
	Delete(ctx context.Context, projectID string) error
	Nodes(ctx context.Context, projectID string) ([]workspace.TreeNode, error)
	PutNodes(ctx context.Context, projectID string, nodes ...workspace.TreeNode) error
	DeleteNodes(ctx context.Context, projectID string, ids ...string) error
	SetBuildOutput(ctx context.Context, projectID string, abi *workspace.ABI, contractBOC string) error
}

type Deps struct {
	Projects  ProjectStore
	Contents  content.Store
	Importer  *workspace.Importer
	Compiler  compiler.Compiler
	Extractor resolver.Extractor
	Parser    build.InterfaceParser
	Reporter  build.Reporter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Service implements the workspace use cases on top of the project and
// content stores.
type Service struct {
	projects ProjectStore
	contents content.Store
	importer *workspace.Importer
	builder  *build.Orchestrator
	metrics  *metrics.Metrics
	logger   *zap.Logger

	treeLocks  keyedMutex
	buildLocks keyedMutex
}

func New(deps Deps) (*Service, error) {
	if deps.Projects == nil {
		return nil, fmt.Errorf("project store is required")
	}
	if deps.Contents == nil {
		return nil, fmt.Errorf("content store is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Importer == nil {
		deps.Importer = workspace.NewImporter(deps.Logger)
	}
	s := &Service{
		projects: deps.Projects,
		contents: deps.Contents,
		importer: deps.Importer,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
	orch, err := build.New(build.Deps{
		Files:     s,
		Output:    deps.Projects,
		Compiler:  deps.Compiler,
		Extractor: deps.Extractor,
		Parser:    deps.Parser,
		Reporter:  deps.Reporter,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger.Named("build"),
	})
	if err != nil {
		return nil, err
	}
	s.builder = orch
	return s, nil
}

type CreateRequest struct {
	Name     string
	Template workspace.Template
	// Archive is read only for the import template when Files is empty.
	Archive workspace.Archive
	Files   []workspace.TreeNode
}

// CreateProject builds the initial tree from a template, caller-supplied
// nodes or an archive. Contents are stored before the tree.
func (s *Service) CreateProject(ctx context.Context, req CreateRequest) (workspace.Project, error) {
	tmpl, err := workspace.ParseTemplate(string(req.Template))
	if err != nil {
		return workspace.Project{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var inst workspace.Instantiation
	if tmpl == workspace.TemplateImport && len(req.Files) == 0 {
		if req.Archive == nil {
			return workspace.Project{}, fmt.Errorf("%w: archive is required for import", ErrInvalidInput)
		}
		inst, err = s.importer.Import(ctx, req.Archive)
	} else {
		inst, err = workspace.Instantiate(tmpl, req.Files)
	}
	if err != nil {
		return workspace.Project{}, err
	}
	if err := workspace.Validate(inst.Files); err != nil {
		return workspace.Project{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	p := workspace.NormalizeProject(workspace.Project{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Template: tmpl,
	})
	if err := s.contents.Put(ctx, p.ID, inst.FilesWithID...); err != nil {
		return workspace.Project{}, fmt.Errorf("store contents: %w", err)
	}
	if err := s.projects.Create(ctx, p, inst.Files); err != nil {
		s.dropContents(ctx, p.ID, inst.FilesWithID)
		return workspace.Project{}, fmt.Errorf("store project: %w", err)
	}

	imported := 0
	if tmpl == workspace.TemplateImport {
		imported = len(inst.Files)
	}
	s.metrics.ObserveProjectCreated(string(tmpl), imported)
	s.logger.Info("project created",
		zap.String("project_id", p.ID),
		zap.String("template", string(tmpl)),
		zap.Int("nodes", len(inst.Files)),
	)
	return s.projects.Get(ctx, p.ID)
}

func (s *Service) dropContents(ctx context.Context, projectID string, files []workspace.FileContent) {
	ids := make([]string, 0, len(files))
	for _, fc := range files {
		ids = append(ids, fc.ID)
	}
	if err := s.contents.Delete(ctx, projectID, ids...); err != nil {
		s.logger.Warn("drop orphaned contents", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (s *Service) ListProjects(ctx context.Context) ([]workspace.Project, error) {
	return s.projects.List(ctx)
}

func (s *Service) GetProject(ctx context.Context, projectID string) (workspace.Project, error) {
	if strings.TrimSpace(projectID) == "" {
		return workspace.Project{}, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	return s.projects.Get(ctx, projectID)
}

// forgetter is implemented by caching content stores.
type forgetter interface {
	Forget(projectID string)
}

// DeleteProject removes the project, its tree and every file content.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	unlock := s.treeLocks.Lock(projectID)
	defer unlock()

	nodes, err := s.projects.Nodes(ctx, projectID)
	if err != nil {
		return err
	}
	if ids := fileIDs(nodes); len(ids) > 0 {
		if err := s.contents.Delete(ctx, projectID, ids...); err != nil {
			return fmt.Errorf("delete contents: %w", err)
		}
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		return err
	}
	if f, ok := s.contents.(forgetter); ok {
		f.Forget(projectID)
	}
	s.logger.Info("project deleted", zap.String("project_id", projectID))
	return nil
}

// Build compiles entryPath. Builds of one project never overlap.
func (s *Service) Build(ctx context.Context, projectID, entryPath string) (build.Result, error) {
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return build.Result{}, err
	}
	unlock := s.buildLocks.Lock(projectID)
	defer unlock()
	return s.builder.Build(ctx, projectID, entryPath)
}

func fileIDs(nodes []workspace.TreeNode) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.IsFile() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}
