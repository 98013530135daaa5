// Package querycache is the front-end's shared query cache. Entries are
// keyed by ordered string parts, served while fresh, invalidated by key
// prefix and evicted after a period of disuse.
//
// A Cache is an ordinary value owned by whoever creates it (normally the
// binary's main) and handed to every component that reads or invalidates
// remote state.
package querycache

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleTime     = 5 * time.Minute
	DefaultGCTime        = 10 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Key identifies a cached query, e.g. Key{"task", "detail", "TASK-001"}.
type Key []string

// HasPrefix reports whether every part of prefix matches the leading parts
// of k. The empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, p := range prefix {
		if k[i] != p {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return strings.Join(k, "\x1f")
}

// Options configures a Cache. Zero values fall back to the defaults.
type Options struct {
	StaleTime     time.Duration
	GCTime        time.Duration
	SweepInterval time.Duration
	// Now replaces the wall clock, mainly for tests.
	Now func() time.Time
}

type entry struct {
	key       Key
	data      any
	fetchedAt time.Time
	lastUsed  time.Time
	staleTime time.Duration
	gcTime    time.Duration
	// invalidated is the marker set by Invalidate; the next read refetches.
	invalidated bool
}

// flight is one run of a fetch function. Invalidate detaches matching
// flights so later reads start their own.
type flight struct {
	key         Key
	invalidated bool
}

// Cache stores query results. It is safe for concurrent use.
type Cache struct {
	opts  Options
	group singleflight.Group

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*flight
}

// New creates an empty cache.
func New(opts Options) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.GCTime <= 0 {
		opts.GCTime = DefaultGCTime
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		opts:     opts,
		entries:  make(map[string]*entry),
		inflight: make(map[string]*flight),
	}
}

// FetchOption overrides cache defaults for a single Fetch.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	staleTime time.Duration
	gcTime    time.Duration
}

// WithStaleTime sets how long a fetched result is served without refetching.
func WithStaleTime(d time.Duration) FetchOption {
	return func(fc *fetchConfig) {
		fc.staleTime = d
	}
}

// WithGCTime sets how long an unused result stays in the cache.
func WithGCTime(d time.Duration) FetchOption {
	return func(fc *fetchConfig) {
		fc.gcTime = d
	}
}

// Fetch returns the fresh cached value for key or runs fn to obtain one.
// Concurrent fetches of the same key share a single call of fn. The shared
// call keeps the starting caller's context values but not its cancellation;
// each caller stops waiting when its own ctx ends. Errors are never cached.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error), opts ...FetchOption) (T, error) {
	fc := fetchConfig{staleTime: c.opts.StaleTime, gcTime: c.opts.GCTime}
	for _, opt := range opts {
		opt(&fc)
	}

	if v, ok := c.lookup(key, fc.staleTime); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	id := key.String()
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		f := c.begin(key)
		v, err := fn(shared)
		c.settle(f, v, err, fc)
		return v, err
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		t, _ := res.Val.(T)
		return t, nil
	}
}

func (c *Cache) lookup(key Key, staleTime time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	now := c.opts.Now()
	e.lastUsed = now
	if e.invalidated || now.Sub(e.fetchedAt) >= staleTime {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) begin(key Key) *flight {
	f := &flight{key: key}
	c.mu.Lock()
	c.inflight[key.String()] = f
	c.mu.Unlock()
	return f
}

// settle stores the result of f. A flight superseded by a newer one for the
// same key leaves both the record and the entry to its successor.
func (c *Cache) settle(f *flight, v any, err error, fc fetchConfig) {
	id := f.key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight[id] != f {
		return
	}
	delete(c.inflight, id)
	if err != nil {
		return
	}

	now := c.opts.Now()
	c.entries[id] = &entry{
		key:         f.key,
		data:        v,
		fetchedAt:   now,
		lastUsed:    now,
		staleTime:   fc.staleTime,
		gcTime:      fc.gcTime,
		invalidated: f.invalidated,
	}
}

// Invalidate marks every entry under prefix stale so the next read refetches,
// including fetches still in flight. It returns the number of stored entries
// marked.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.invalidated = true
			n++
		}
	}
	c.markFlights(prefix)
	return n
}

// Remove drops every entry under prefix.
func (c *Cache) Remove(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			delete(c.entries, id)
			n++
		}
	}
	c.markFlights(prefix)
	return n
}

func (c *Cache) markFlights(prefix Key) {
	for id, f := range c.inflight {
		if f.key.HasPrefix(prefix) {
			f.invalidated = true
			c.group.Forget(id)
		}
	}
}

// Snapshot is a read-only view of one entry.
type Snapshot struct {
	Data        any
	FetchedAt   time.Time
	Invalidated bool
	// Stale is true when the entry is invalidated or older than the stale
	// time it was fetched with.
	Stale bool
}

// Peek inspects key without counting as a use.
func (c *Cache) Peek(key Key) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Snapshot{}, false
	}
	return Snapshot{
		Data:        e.data,
		FetchedAt:   e.fetchedAt,
		Invalidated: e.invalidated,
		Stale:       e.invalidated || c.opts.Now().Sub(e.fetchedAt) >= e.staleTime,
	}, true
}

// Sweep evicts entries unused for longer than their GC time and returns the
// number evicted.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for id, e := range c.entries {
		if _, busy := c.inflight[id]; busy {
			continue
		}
		if now.Sub(e.lastUsed) > e.gcTime {
			delete(c.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps the cache every SweepInterval until ctx is done.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.opts.SweepInterval)
	defer ticker.Stop()
	log.Printf("🧹 Starting cache sweeper (runs every %s)", c.opts.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(c.opts.Now()); n > 0 {
				log.Printf("[INFO] cache sweep evicted %d entries", n)
			}
		}
	}
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
