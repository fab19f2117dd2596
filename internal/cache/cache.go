// Package cache implements the Result Cache (component B, spec §4.2): a
// content-addressed, on-disk store of ExtractionResults with an
// in-memory index and single-flight coordination so that concurrent
// requests for the same (content, config) pair never run the extraction
// pipeline more than once concurrently.
//
// Grounded on the teacher's internal/storage package for the general
// shape of a dedicated storage collaborator taking a root/address and
// exposing Get/Set-style methods with wrapped errors, but the teacher's
// storage is a Postgres+Qdrant remote store (spec §1 Non-goals rule out
// an external DB for the core engine) — the on-disk layout and
// single-flight leader/follower protocol below have no teacher
// precedent and are built directly from spec §4.2/§6's description of
// the cache layout and the single-flight guarantee in spec §5.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adverant/kreuzberg-go/internal/logging"
	"github.com/adverant/kreuzberg-go/internal/metrics"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// entry is the in-memory index record for one cached result.
type entry struct {
	path       string
	size       int64
	lastAccess time.Time
}

// flight tracks one in-progress production of a cache key. The leader
// goroutine closes done exactly once (via MarkComplete or, on panic,
// via a deferred release) so followers blocked on Await never hang.
type flight struct {
	done   chan struct{}
	result *types.ExtractionResult
	err    error
}

// Cache is a process-lifetime singleton (spec: "a single cache instance
// coordinates all callers in a process") — construct one and share the
// handle, don't reach for package-level state.
type Cache struct {
	root       string
	maxBytes   int64
	logger     *logging.Logger
	sweeper    *cron.Cron
	metrics    metrics.Registry

	mu       sync.Mutex
	index    map[string]*entry
	inFlight map[string]*flight
}

// Option configures a Cache at construction.
type Option func(*Cache)

func WithLogger(l *logging.Logger) Option { return func(c *Cache) { c.logger = l } }

// WithMetrics attaches a metrics.Registry observing cache_hit_total and
// cache_miss_total (SPEC_FULL §10.5). Unset, a Cache reports to
// metrics.NoopRegistry.
func WithMetrics(r metrics.Registry) Option { return func(c *Cache) { c.metrics = r } }

// WithMaxBytes sets the on-disk size budget that triggers LRU eviction.
// 0 (the default) disables eviction.
func WithMaxBytes(n int64) Option { return func(c *Cache) { c.maxBytes = n } }

// New constructs a Cache rooted at dir, creating it if necessary. A
// background sweep (every 10 minutes, via robfig/cron/v3 — the
// teacher's own dependency, previously unused in this rewrite's core
// path) evicts least-recently-used entries once maxBytes is exceeded.
func New(dir string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache root %q: %w", dir, err)
	}
	c := &Cache{
		root:     dir,
		logger:   logging.Discard(),
		metrics:  metrics.NoopRegistry{},
		index:    map[string]*entry{},
		inFlight: map[string]*flight{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rebuildIndex()

	c.sweeper = cron.New()
	if _, err := c.sweeper.AddFunc("@every 10m", c.evictIfOverBudget); err != nil {
		return nil, fmt.Errorf("scheduling cache sweep: %w", err)
	}
	c.sweeper.Start()
	return c, nil
}

// Close stops the background sweeper. It does not delete cached data.
func (c *Cache) Close() {
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
}

func (c *Cache) pathFor(key string) string {
	// Two-level fan-out directory (spec §6 cache layout) keeps any single
	// directory from accumulating millions of entries.
	if len(key) < 4 {
		return filepath.Join(c.root, key+".json")
	}
	return filepath.Join(c.root, key[:2], key[2:4], key+".json")
}

func (c *Cache) rebuildIndex() {
	_ = filepath.Walk(c.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		key := keyFromFilename(path)
		if key == "" {
			return nil
		}
		c.mu.Lock()
		c.index[key] = &entry{path: path, size: info.Size(), lastAccess: info.ModTime()}
		c.mu.Unlock()
		return nil
	})
}

func keyFromFilename(path string) string {
	base := filepath.Base(path)
	const suffix = ".json"
	if len(base) <= len(suffix) || base[len(base)-len(suffix):] != suffix {
		return ""
	}
	return base[:len(base)-len(suffix)]
}

// Get returns the cached result for key, if present. A corrupt entry
// (unreadable or unparseable) is treated as a miss, per spec §4.2, and
// the offending file is removed so it doesn't keep failing.
func (c *Cache) Get(ctx context.Context, key string) (*types.ExtractionResult, bool) {
	c.mu.Lock()
	ent, ok := c.index[key]
	c.mu.Unlock()
	if !ok {
		c.metrics.IncCacheMiss()
		return nil, false
	}

	data, err := os.ReadFile(ent.path)
	if err != nil {
		c.logger.Warn("cache entry unreadable, treating as miss", "key", key, "error", err)
		c.forget(key)
		c.metrics.IncCacheMiss()
		return nil, false
	}
	var result types.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("cache entry corrupt, treating as miss", "key", key, "error", err)
		c.forget(key)
		c.metrics.IncCacheMiss()
		return nil, false
	}

	c.mu.Lock()
	ent.lastAccess = time.Now()
	c.mu.Unlock()
	c.metrics.IncCacheHit()
	return &result, true
}

func (c *Cache) forget(key string) {
	c.mu.Lock()
	ent, ok := c.index[key]
	if ok {
		delete(c.index, key)
	}
	c.mu.Unlock()
	if ok {
		_ = os.Remove(ent.path)
	}
}

// Stats is a point-in-time summary of the on-disk cache, consumed by
// the cmd/extract CLI's cache-stats subcommand (mirroring the teacher's
// Consumer.GetStatistics shape).
type Stats struct {
	Entries   int
	TotalBytes int64
	MaxBytes  int64
	Root      string
}

// Stats reports the current entry count and total size.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, e := range c.index {
		total += e.size
	}
	return Stats{Entries: len(c.index), TotalBytes: total, MaxBytes: c.maxBytes, Root: c.root}
}

// IsProcessing reports whether another caller is currently producing key.
func (c *Cache) IsProcessing(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[key]
	return ok
}

// MarkProcessing registers the caller as the (possibly sole) producer of
// key. When isLeader is true, the caller must eventually call
// MarkComplete (even on error — use a defer) to release followers. When
// false, the caller should call Await instead of producing anything
// itself (spec §5's single-flight guarantee: "at most one producer per
// cache key process-wide").
func (c *Cache) MarkProcessing(key string) (isLeader bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inFlight[key]; ok {
		return false
	}
	c.inFlight[key] = &flight{done: make(chan struct{})}
	return true
}

// Await blocks until the in-flight production of key completes, or ctx
// is cancelled, returning the leader's result.
func (c *Cache) Await(ctx context.Context, key string) (*types.ExtractionResult, bool, error) {
	c.mu.Lock()
	f, ok := c.inFlight[key]
	c.mu.Unlock()
	if !ok {
		// Nothing in flight; fall back to a direct cache read.
		result, hit := c.Get(ctx, key)
		return result, hit, nil
	}
	select {
	case <-f.done:
		return f.result, f.result != nil, f.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// MarkComplete stores result (persisting it to disk and the in-memory
// index unless result is nil, e.g. the production failed) and releases
// any followers blocked in Await. Safe to call from a deferred recovery
// handler — a panicking leader that still calls MarkComplete(key, nil,
// err) releases its followers instead of leaving them blocked forever.
func (c *Cache) MarkComplete(key string, result *types.ExtractionResult, err error) {
	if result != nil {
		if werr := c.set(key, result); werr != nil {
			c.logger.Error("failed to persist cache entry", "key", key, "error", werr)
		}
	}

	c.mu.Lock()
	f, ok := c.inFlight[key]
	delete(c.inFlight, key)
	c.mu.Unlock()
	if !ok {
		return
	}
	f.result = result
	f.err = err
	close(f.done)
}

// set writes result to disk atomically (write to a temp file in the
// same directory, then rename) so a concurrent reader never observes a
// partially-written entry.
func (c *Cache) set(key string, result *types.ExtractionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache shard dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming cache file into place: %w", err)
	}

	c.mu.Lock()
	c.index[key] = &entry{path: path, size: int64(len(data)), lastAccess: time.Now()}
	c.mu.Unlock()
	return nil
}

// evictIfOverBudget removes least-recently-used entries until total
// cached bytes falls at or below maxBytes. A no-op when maxBytes is 0.
func (c *Cache) evictIfOverBudget() {
	if c.maxBytes <= 0 {
		return
	}

	c.mu.Lock()
	var total int64
	keys := make([]string, 0, len(c.index))
	for k, e := range c.index {
		total += e.size
		keys = append(keys, k)
	}
	if total <= c.maxBytes {
		c.mu.Unlock()
		return
	}
	// Sort keys oldest-access-first.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && c.index[keys[j-1]].lastAccess.After(c.index[keys[j]].lastAccess); j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	var toRemove []string
	for _, k := range keys {
		if total <= c.maxBytes {
			break
		}
		total -= c.index[k].size
		toRemove = append(toRemove, k)
	}
	c.mu.Unlock()

	for _, k := range toRemove {
		c.forget(k)
	}
	if len(toRemove) > 0 {
		c.logger.Info("cache sweep evicted entries", "count", len(toRemove))
	}
}
