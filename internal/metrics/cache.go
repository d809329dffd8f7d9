package metrics

import "github.com/prometheus/client_golang/prometheus"

// ContentCacheStats is a point-in-time copy of the content cache counters.
type ContentCacheStats struct {
	BodyHits       uint64
	BodyMisses     uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type contentCacheCollector struct {
	stats   func() ContentCacheStats
	lookups *prometheus.Desc
	origin  *prometheus.Desc
}

// RegisterContentCache exposes stats on reg. stats is called on every
// scrape and must be cheap.
func RegisterContentCache(reg prometheus.Registerer, stats func() ContentCacheStats) error {
	if reg == nil || stats == nil {
		return nil
	}
	return reg.Register(&contentCacheCollector{
		stats: stats,
		lookups: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "content_cache", "lookups_total"),
			"Content cache lookups by cache and result.",
			[]string{"cache", "result"}, nil,
		),
		origin: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "content_cache", "origin_ops_total"),
			"Calls from the content cache to its backing store.",
			[]string{"op", "outcome"}, nil,
		),
	})
}

func (c *contentCacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lookups
	ch <- c.origin
}

func (c *contentCacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	counter := func(desc *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), labels...)
	}
	counter(c.lookups, s.BodyHits, "body", "hit")
	counter(c.lookups, s.BodyMisses, "body", "miss")
	counter(c.lookups, s.ListHits, "list", "hit")
	counter(c.lookups, s.ListMisses, "list", "miss")
	counter(c.origin, okCount(s.OriginReads, s.OriginReadErr), "read", "ok")
	counter(c.origin, s.OriginReadErr, "read", "error")
	counter(c.origin, okCount(s.OriginWrites, s.OriginWriteErr), "write", "ok")
	counter(c.origin, s.OriginWriteErr, "write", "error")
}

// okCount tolerates a snapshot that caught an error increment but not the
// matching attempt.
func okCount(total, failed uint64) uint64 {
	if failed > total {
		return 0
	}
	return total - failed
}
