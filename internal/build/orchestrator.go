// Package build resolves, compiles and records the output of a project entry file.
package build

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tonide/internal/compiler"
	"tonide/internal/metrics"
	"tonide/internal/resolver"
	"tonide/internal/workspace"
)

var (
	ErrEntryNotFound = errors.New("entry file not found")
	ErrEntryEmpty    = errors.New("entry file is empty")
	ErrNoEntry       = errors.New("entry path is required")
)

// CompileError carries the compiler's message verbatim.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string { return e.Message }

// FileSource resolves project paths to file records.
type FileSource interface {
	GetFileByPath(ctx context.Context, projectID, path string) (workspace.FileRecord, bool, error)
}

// OutputStore persists build output onto the project record.
type OutputStore interface {
	SetBuildOutput(ctx context.Context, projectID string, abi *workspace.ABI, contractBOC string) error
}

type InterfaceParser interface {
	ParseInterface(content string) (*workspace.ABI, error)
}

type Reporter interface {
	Report(ctx context.Context, ev Event)
}

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarning EventType = "warning"
	EventError   EventType = "error"
	EventSuccess EventType = "success"
)

type Event struct {
	ProjectID string
	Type      EventType
	Message   string
	Time      time.Time
}

type Result struct {
	ABI         *workspace.ABI `json:"abi"`
	ContractBOC string         `json:"contractBOC"`
	Files       []string       `json:"files"`
}

type Deps struct {
	Files     FileSource
	Output    OutputStore
	Compiler  compiler.Compiler
	Extractor resolver.Extractor
	Parser    InterfaceParser
	Reporter  Reporter
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

type Orchestrator struct {
	deps Deps
}

func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Files == nil:
		return nil, fmt.Errorf("file source is required")
	case deps.Output == nil:
		return nil, fmt.Errorf("output store is required")
	case deps.Compiler == nil:
		return nil, fmt.Errorf("compiler is required")
	case deps.Extractor == nil:
		return nil, fmt.Errorf("directive extractor is required")
	case deps.Parser == nil:
		return nil, fmt.Errorf("interface parser is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps}, nil
}

// Build compiles entryPath of a project. Resolution completes before the
// compiler runs; on a compiler error nothing is persisted.
func (o *Orchestrator) Build(ctx context.Context, projectID, entryPath string) (Result, error) {
	started := time.Now()
	entry := workspace.NormalizePath(entryPath)
	if entry == "" {
		return Result{}, ErrNoEntry
	}
	logger := o.deps.Logger.With(zap.String("project_id", projectID), zap.String("entry", entry))
	o.report(ctx, projectID, EventInfo, "Building "+entry)

	res, files, err := o.build(ctx, projectID, entry, logger)
	result := "ok"
	if err != nil {
		result = "error"
		var compileErr *CompileError
		if errors.As(err, &compileErr) {
			result = "compile_error"
		}
		o.report(ctx, projectID, EventError, err.Error())
		logger.Warn("build failed", zap.Error(err))
	} else {
		o.report(ctx, projectID, EventSuccess, fmt.Sprintf("Built %s (%d files)", entry, len(res.Files)))
		logger.Info("build succeeded", zap.Int("files", len(res.Files)))
	}
	o.deps.Metrics.ObserveBuild(result, files, time.Since(started))
	return res, err
}

func (o *Orchestrator) build(ctx context.Context, projectID, entry string, logger *zap.Logger) (Result, int, error) {
	lookup := func(ctx context.Context, path string) (workspace.FileRecord, bool, error) {
		return o.deps.Files.GetFileByPath(ctx, projectID, path)
	}
	unit, err := resolver.Resolve(ctx, entry, lookup, o.deps.Extractor)
	if err != nil {
		return Result{}, 0, fmt.Errorf("resolve %s: %w", entry, err)
	}
	if _, ok := unit.ByPath(entry); !ok {
		// The resolver drops empty files, so look again to tell the two apart.
		rec, found, err := lookup(ctx, entry)
		if err != nil {
			return Result{}, 0, fmt.Errorf("lookup %s: %w", entry, err)
		}
		if found && rec.Content == "" {
			return Result{}, 0, fmt.Errorf("%w: %s", ErrEntryEmpty, entry)
		}
		return Result{}, 0, fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
	}
	logger.Debug("directives resolved", zap.Strings("files", unit.Paths()))
	o.report(ctx, projectID, EventInfo, fmt.Sprintf("Resolved %d files", unit.Len()))

	resp, err := o.deps.Compiler.Compile(ctx, compiler.Request{
		Targets: []string{entry},
		Sources: o.sourceFunc(ctx, projectID, unit),
		Paths:   unit.Paths(),
	})
	if err != nil {
		return Result{}, unit.Len(), fmt.Errorf("compile %s: %w", entry, err)
	}
	if resp.Status != compiler.StatusOK {
		return Result{}, unit.Len(), &CompileError{Message: resp.Message}
	}

	abi, err := o.deriveABI(ctx, projectID, unit, logger)
	if err != nil {
		return Result{}, unit.Len(), err
	}
	if err := o.deps.Output.SetBuildOutput(ctx, projectID, abi, resp.CodeBoc); err != nil {
		return Result{}, unit.Len(), fmt.Errorf("save build output: %w", err)
	}
	return Result{ABI: abi, ContractBOC: resp.CodeBoc, Files: unit.Paths()}, unit.Len(), nil
}

// sourceFunc serves the compile unit to the compiler. Paths outside the unit
// are looked up in the project and recorded when found.
func (o *Orchestrator) sourceFunc(ctx context.Context, projectID string, unit *resolver.CompileUnit) compiler.SourceFunc {
	var mu sync.Mutex
	return func(path string) string {
		mu.Lock()
		defer mu.Unlock()
		if rec, ok := unit.ByPath(path); ok {
			return rec.Content
		}
		rec, ok, err := o.deps.Files.GetFileByPath(ctx, projectID, workspace.NormalizePath(path))
		if err != nil || !ok || rec.Content == "" {
			return ""
		}
		unit.Add(rec)
		return rec.Content
	}
}

// deriveABI takes the first file of the unit whose getters are not empty.
func (o *Orchestrator) deriveABI(ctx context.Context, projectID string, unit *resolver.CompileUnit, logger *zap.Logger) (*workspace.ABI, error) {
	var (
		abi     *workspace.ABI
		sources []string
	)
	for _, rec := range unit.Files() {
		parsed, err := o.deps.Parser.ParseInterface(rec.Content)
		if err != nil {
			return nil, fmt.Errorf("parse getters in %s: %w", rec.Path, err)
		}
		if parsed.Empty() {
			continue
		}
		sources = append(sources, rec.Path)
		if abi == nil {
			abi = parsed
		}
	}
	if len(sources) > 1 {
		msg := fmt.Sprintf("Getters found in several files, using %s: %s", sources[0], strings.Join(sources, ", "))
		logger.Warn("ambiguous interface", zap.Strings("files", sources))
		o.report(ctx, projectID, EventWarning, msg)
	}
	if abi == nil {
		abi = &workspace.ABI{Getters: []workspace.Getter{}}
	}
	return abi, nil
}

func (o *Orchestrator) report(ctx context.Context, projectID string, typ EventType, msg string) {
	if o.deps.Reporter == nil {
		return
	}
	o.deps.Reporter.Report(ctx, Event{
		ProjectID: projectID,
		Type:      typ,
		Message:   msg,
		Time:      time.Now(),
	})
}
