package content

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	memcache "tonide/internal/cache/memory"
	contentrepo "tonide/internal/gateway/repository/content"
	"tonide/internal/workspace"
)

type Store = contentrepo.Store

type CacheConfig struct {
	BodyTTL        time.Duration
	BodyMaxEntries int
	BodyMaxBytes   int

	ListTTL        time.Duration
	ListMaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		BodyTTL:        5 * time.Minute,
		BodyMaxEntries: 4096,
		BodyMaxBytes:   32 * 1024 * 1024, // 32MiB
		ListTTL:        30 * time.Second,
		ListMaxEntries: 256,
	}
}

type MetricsSnapshot struct {
	BodyHits       uint64
	BodyMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type counters struct {
	bodyHits       atomic.Uint64
	bodyMisses     atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

// CachedStore fronts a content Store with in-memory read-through and
// write-through caches. Writes hit the origin before the cache.
type CachedStore struct {
	origin Store

	bodies *memcache.LRUTTL[string, string]
	lists  *memcache.LRUTTL[string, []string]
	stats  counters
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.BodyTTL <= 0 {
		cfg.BodyTTL = def.BodyTTL
	}
	if cfg.BodyMaxEntries <= 0 {
		cfg.BodyMaxEntries = def.BodyMaxEntries
	}
	if cfg.BodyMaxBytes < 0 {
		cfg.BodyMaxBytes = def.BodyMaxBytes
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = def.ListTTL
	}
	if cfg.ListMaxEntries <= 0 {
		cfg.ListMaxEntries = def.ListMaxEntries
	}
	return &CachedStore{
		origin: origin,
		bodies: memcache.NewLRUTTL[string, string](cfg.BodyMaxEntries, cfg.BodyMaxBytes, cfg.BodyTTL),
		lists:  memcache.NewLRUTTL[string, []string](cfg.ListMaxEntries, 0, cfg.ListTTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, projectID string, files ...workspace.FileContent) error {
	s.stats.originWrites.Add(1)
	if err := s.origin.Put(ctx, projectID, files...); err != nil {
		s.stats.originWriteErr.Add(1)
		return err
	}
	for _, fc := range files {
		s.bodies.Set(bodyKey(projectID, fc.ID), fc.Content, len(fc.Content))
	}
	s.lists.Delete(strings.TrimSpace(projectID))
	return nil
}

func (s *CachedStore) Get(ctx context.Context, projectID, id string) (workspace.FileContent, error) {
	key := bodyKey(projectID, id)
	if body, ok := s.bodies.Get(key); ok {
		s.stats.bodyHits.Add(1)
		return workspace.FileContent{ID: strings.TrimSpace(id), Content: body}, nil
	}
	s.stats.bodyMisses.Add(1)
	s.stats.originReads.Add(1)

	fc, err := s.origin.Get(ctx, projectID, id)
	if err != nil {
		s.stats.originReadErr.Add(1)
		return workspace.FileContent{}, err
	}
	s.bodies.Set(key, fc.Content, len(fc.Content))
	return fc, nil
}

func (s *CachedStore) Delete(ctx context.Context, projectID string, ids ...string) error {
	for _, id := range ids {
		s.bodies.Delete(bodyKey(projectID, id))
	}
	s.lists.Delete(strings.TrimSpace(projectID))
	s.stats.originWrites.Add(1)
	if err := s.origin.Delete(ctx, projectID, ids...); err != nil {
		s.stats.originWriteErr.Add(1)
		return err
	}
	return nil
}

func (s *CachedStore) List(ctx context.Context, projectID string) ([]string, error) {
	projectID = strings.TrimSpace(projectID)
	if ids, ok := s.lists.Get(projectID); ok {
		s.stats.listHits.Add(1)
		return append([]string(nil), ids...), nil
	}
	s.stats.listMisses.Add(1)
	s.stats.originReads.Add(1)

	ids, err := s.origin.List(ctx, projectID)
	if err != nil {
		s.stats.originReadErr.Add(1)
		return nil, err
	}
	copied := append([]string(nil), ids...)
	size := 0
	for _, id := range copied {
		size += len(id)
	}
	s.lists.Set(projectID, copied, size)
	return append([]string(nil), copied...), nil
}

// Forget drops every cached body and listing of a project.
func (s *CachedStore) Forget(projectID string) {
	if s == nil {
		return
	}
	projectID = strings.TrimSpace(projectID)
	prefix := projectID + "/"
	s.bodies.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, prefix) })
	s.lists.Delete(projectID)
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		BodyHits:       s.stats.bodyHits.Load(),
		BodyMisses:     s.stats.bodyMisses.Load(),
		ListHits:       s.stats.listHits.Load(),
		ListMisses:     s.stats.listMisses.Load(),
		OriginReads:    s.stats.originReads.Load(),
		OriginWrites:   s.stats.originWrites.Load(),
		OriginReadErr:  s.stats.originReadErr.Load(),
		OriginWriteErr: s.stats.originWriteErr.Load(),
	}
}

func bodyKey(projectID, id string) string {
	return strings.TrimSpace(projectID) + "/" + strings.TrimSpace(id)
}
