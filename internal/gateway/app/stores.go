package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	contentcache "tonide/internal/cache/content"
	"tonide/internal/gateway/config"
	contentrepo "tonide/internal/gateway/repository/content"
	"tonide/internal/gateway/repository/projectstore"
)

type gatewayStores struct {
	projects *projectstore.Store
	contents *contentcache.CachedStore
}

func (s *gatewayStores) Close() error {
	if s == nil {
		return nil
	}
	return s.projects.Close()
}

func initStores(cfg *config.Config, logger *zap.Logger) (*gatewayStores, error) {
	var (
		projects *projectstore.Store
		origin   contentrepo.Store
		backend  string
	)
	if dsn := strings.TrimSpace(cfg.ProjectStore.DSN); dsn != "" {
		store, err := projectstore.NewPostgres(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open project store: %w", err)
		}
		projects = store
		origin = contentrepo.NewPostgresStore(store.DB())
		backend = "postgres"
	} else {
		projects = projectstore.New(cfg.ProjectStore.Path)
		origin = contentrepo.NewDiskStore(cfg.Content.Dir)
		backend = "disk"
	}

	if cfg.Content.S3.Enabled {
		s3Store, err := contentrepo.NewS3Store(contentrepo.S3Config{
			Endpoint:  cfg.Content.S3.Endpoint,
			Region:    cfg.Content.S3.Region,
			AccessKey: cfg.Content.S3.AccessKey,
			SecretKey: cfg.Content.S3.SecretKey,
			Bucket:    cfg.Content.S3.Bucket,
			UseSSL:    cfg.Content.S3.UseSSL,
		})
		if err != nil {
			_ = projects.Close()
			return nil, fmt.Errorf("failed to initialize content s3 store: %w", err)
		}
		origin = s3Store
		backend = "s3"
	}
	logger.Info("stores ready",
		zap.String("content_backend", backend),
		zap.Bool("project_postgres", projects.DB() != nil),
	)
	return &gatewayStores{
		projects: projects,
		contents: contentcache.NewCachedStore(origin, contentcache.DefaultCacheConfig()),
	}, nil
}
