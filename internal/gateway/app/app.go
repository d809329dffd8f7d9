package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"tonide/internal/archive"
	"tonide/internal/compiler"
	"tonide/internal/funcsrc"
	"tonide/internal/gateway/config"
	"tonide/internal/gateway/handler/rpc"
	"tonide/internal/gateway/server"
	"tonide/internal/gateway/service/buildlog"
	gatewayproject "tonide/internal/gateway/service/project"
	"tonide/internal/metrics"
	"tonide/internal/workspace"
)

// Components is the service graph shared by the gateway and the CLI.
type Components struct {
	Projects *gatewayproject.Service
	BuildLog *buildlog.Hub
	Metrics  *metrics.Metrics
	Limits   archive.Limits

	stores *gatewayStores
}

func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	return c.stores.Close()
}

// NewComponents wires stores, the compiler adapter and the project service.
func NewComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	stores, err := initStores(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := stores.projects.EnsureLoaded(ctx); err != nil {
		_ = stores.Close()
		return nil, fmt.Errorf("failed to load project store: %w", err)
	}

	m := metrics.New(reg)
	if err := metrics.RegisterContentCache(reg, func() metrics.ContentCacheStats {
		return metrics.ContentCacheStats(stores.contents.Metrics())
	}); err != nil {
		_ = stores.Close()
		return nil, err
	}
	hub := buildlog.New(0)
	parser := funcsrc.New()
	cc := compiler.DefaultCommandConfig()
	cc.Bin = cfg.Compiler.Bin
	cc.Timeout = cfg.Compiler.Timeout

	svc, err := gatewayproject.New(gatewayproject.Deps{
		Projects:  stores.projects,
		Contents:  stores.contents,
		Importer:  workspace.NewImporter(logger.Named("import")),
		Compiler:  compiler.NewCommand(cc, logger.Named("compiler")),
		Extractor: parser,
		Parser:    parser,
		Reporter:  hub,
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	return &Components{
		Projects: svc,
		BuildLog: hub,
		Metrics:  m,
		Limits: archive.Limits{
			MaxEntries:   cfg.Import.MaxEntries,
			MaxFileBytes: cfg.Import.MaxFileBytes,
		},
		stores: stores,
	}, nil
}

type App struct {
	server     *server.Server
	components *Components
	logger     *zap.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	comps, err := NewComponents(ctx, cfg, logger, reg)
	if err != nil {
		return nil, err
	}

	projectHandler := rpc.NewProjectHandler(comps.Projects, comps.BuildLog, comps.Limits, logger.Named("rpc"))
	buildLogHandler := rpc.NewBuildLogHandler(comps.BuildLog, logger.Named("ws"))

	// Routing & Server
	mux := server.NewMux(server.Routes{
		Project:  projectHandler,
		BuildLog: buildLogHandler,
		Gatherer: reg,
		Metrics:  comps.Metrics,
		Logger:   logger.Named("http"),
	})
	return &App{
		server:     server.New(cfg.Port, mux, logger),
		components: comps,
		logger:     logger,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.components.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
