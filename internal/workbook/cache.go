package workbook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"invdash/internal/frame"
)

// DefaultCacheSize is the number of parsed workbooks kept in memory.
const DefaultCacheSize = 64

// reader is what the cache needs from the underlying loader.
type reader interface {
	LoadAll(ctx context.Context, path string) (frame.NamedTableSet, error)
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	tables  frame.NamedTableSet
}

// CachedLoader memoizes parsed workbooks by path. An entry is reused while
// the file's modification time and size are unchanged. Concurrent loads of
// the same path share one read.
type CachedLoader struct {
	inner  reader
	cache  *lru.Cache
	group  singleflight.Group
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64

	hitCounter  metric.Int64Counter
	missCounter metric.Int64Counter
	loadTime    metric.Float64Histogram
}

// NewCachedLoader wraps inner with an LRU of the given size. A nil meter
// falls back to the global meter provider.
func NewCachedLoader(inner reader, size int, logger *slog.Logger, meter metric.Meter) (*CachedLoader, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	if meter == nil {
		meter = otel.Meter("invdash/workbook")
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create workbook cache: %w", err)
	}

	c := &CachedLoader{
		inner:  inner,
		cache:  cache,
		logger: logger.With(slog.String("component", "workbook_cache")),
	}
	if c.hitCounter, err = meter.Int64Counter("workbook_cache_hits_total",
		metric.WithDescription("Workbook loads served from memory")); err != nil {
		return nil, err
	}
	if c.missCounter, err = meter.Int64Counter("workbook_cache_misses_total",
		metric.WithDescription("Workbook loads that read the file")); err != nil {
		return nil, err
	}
	if c.loadTime, err = meter.Float64Histogram("workbook_load_duration_seconds",
		metric.WithDescription("Time spent parsing a workbook"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return c, nil
}

// Load returns the requested sheets, reading the workbook at most once per
// modification. The shared read ignores the cancellation of whichever
// caller started it; each caller stops waiting when its own ctx is done.
func (c *CachedLoader) Load(ctx context.Context, path string, names []string) (frame.NamedTableSet, error) {
	info, err := stat(path)
	if err != nil {
		return nil, err
	}

	if e, ok := c.lookup(path, info); ok {
		c.hits.Add(1)
		c.hitCounter.Add(ctx, 1)
		return subset(e.tables, names), nil
	}

	loaded := false
	flight := c.group.DoChan(path, func() (interface{}, error) {
		// a previous flight may have finished since the lookup above
		if e, ok := c.lookup(path, info); ok {
			return e, nil
		}
		loaded = true
		start := time.Now()
		loadCtx := context.WithoutCancel(ctx)
		tables, err := c.inner.LoadAll(loadCtx, path)
		if err != nil {
			return nil, err
		}
		c.loadTime.Record(loadCtx, time.Since(start).Seconds())
		e := &cacheEntry{modTime: info.ModTime(), size: info.Size(), tables: tables}
		c.cache.Add(path, e)
		return e, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-flight:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if loaded {
		c.misses.Add(1)
		c.missCounter.Add(ctx, 1)
		c.logger.DebugContext(ctx, "workbook cached", slog.String("path", path), slog.Int("entries", c.cache.Len()))
	} else {
		c.hits.Add(1)
		c.hitCounter.Add(ctx, 1)
	}
	return subset(res.Val.(*cacheEntry).tables, names), nil
}

// lookup returns the cached entry when it still matches the file on disk.
func (c *CachedLoader) lookup(path string, info os.FileInfo) (*cacheEntry, bool) {
	v, ok := c.cache.Get(path)
	if !ok {
		return nil, false
	}
	e := v.(*cacheEntry)
	if e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e, true
	}
	c.cache.Remove(path)
	return nil, false
}

// Stats returns cumulative hit and miss counts.
func (c *CachedLoader) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len is the number of cached workbooks.
func (c *CachedLoader) Len() int { return c.cache.Len() }

// Purge drops every cached workbook.
func (c *CachedLoader) Purge() { c.cache.Purge() }

// subset picks the named tables. Tables are shared with the cache and must
// be treated as read-only.
func subset(all frame.NamedTableSet, names []string) frame.NamedTableSet {
	out := make(frame.NamedTableSet, len(names))
	for _, n := range names {
		if t, ok := all[n]; ok {
			out[n] = t
		}
	}
	return out
}
