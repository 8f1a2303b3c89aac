// Package query keeps the fetch state of every backend query the views declare.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a keyed query.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "idle"
	}
}

// Settled reports whether the state is terminal for the current fetch.
func (s Status) Settled() bool {
	return s == StatusError || s == StatusSuccess
}

// Key identifies a query: a resource name plus its encoded parameters.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a key. Absent parameters never appear in Params.
func NewKey(resource string, params url.Values) Key {
	key := Key{Resource: resource}
	if len(params) > 0 {
		key.Params = params.Encode()
	}
	return key
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}

// Result is a snapshot of one key's entry. While a refetch is pending Data
// still holds the previous settled value.
type Result struct {
	Key       Key
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
}

// Fetcher performs the upstream call for a key.
type Fetcher func(ctx context.Context) (any, error)

// Recorder observes cache traffic. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveRequest(resource string)
	ObserveFetch(resource string, status Status, duration time.Duration)
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger for failed and panicking fetches.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) {
		c.recorder = r
	}
}

// Cache tracks fetch state per key and collapses concurrent fetches of the
// same key into one upstream call. It never answers from a settled entry:
// every Fetch with nothing in flight goes upstream. An entry lives while its
// fetch is in flight or a subscriber holds the key.
type Cache struct {
	logger   *slog.Logger
	recorder Recorder
	group    singleflight.Group

	mu      sync.Mutex
	entries map[Key]Result
	subs    map[Key]map[*subscription]struct{}
}

type subscription struct {
	ch chan Result
}

// NewCache constructs an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		logger:  slog.Default(),
		entries: make(map[Key]Result),
		subs:    make(map[Key]map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of keys currently tracked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get returns the current snapshot for key. Unknown keys are idle.
func (c *Cache) Get(key Key) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(key)
}

// Fetch starts a fetch for key, or joins the one already in flight, and waits
// for it to settle. When ctx ends first the pending snapshot is returned and
// the fetch keeps running.
func (c *Cache) Fetch(ctx context.Context, key Key, fn Fetcher) Result {
	if c.recorder != nil {
		c.recorder.ObserveRequest(key.Resource)
	}
	shared := context.WithoutCancel(ctx)
	flight := key.String()

	c.mu.Lock()
	c.transition(key, Result{Key: key, Status: StatusPending})
	ch := c.group.DoChan(flight, func() (any, error) {
		start := time.Now()
		data, err := c.run(shared, key, fn)

		c.mu.Lock()
		defer c.mu.Unlock()
		// Later fetches of this key must start a new flight once the entry settles.
		c.group.Forget(flight)
		res := Result{Key: key, Status: StatusSuccess, Data: data, Err: err, UpdatedAt: time.Now()}
		if err != nil {
			res.Status = StatusError
			res.Data = nil
		}
		c.transition(key, res)
		if c.recorder != nil {
			c.recorder.ObserveFetch(key.Resource, res.Status, time.Since(start))
		}
		return res, nil
	})
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return c.Get(key)
	case out := <-ch:
		if res, ok := out.Val.(Result); ok {
			return res
		}
		return c.Get(key)
	}
}

func (c *Cache) run(ctx context.Context, key Key, fn Fetcher) (data any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger.Error("query panicked", slog.String("key", key.String()), slog.Any("panic", rec))
			data, err = nil, fmt.Errorf("query %s: panic: %v", key, rec)
		}
	}()
	data, err = fn(ctx)
	if err != nil {
		c.logger.Warn("query failed", slog.String("key", key.String()), slog.Any("error", err))
	}
	return data, err
}

// transition applies next to the entry and notifies the key's subscribers.
// A settled entry nobody subscribes to is dropped. Callers hold c.mu.
func (c *Cache) transition(key Key, next Result) {
	prev, ok := c.entries[key]
	if next.Status == StatusPending {
		if ok && prev.Status == StatusPending {
			return
		}
		next.Data = prev.Data
		next.UpdatedAt = prev.UpdatedAt
	}
	for sub := range c.subs[key] {
		sub.deliver(next)
	}
	if next.Status.Settled() && len(c.subs[key]) == 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = next
}

func (c *Cache) snapshot(key Key) Result {
	if res, ok := c.entries[key]; ok {
		return res
	}
	return Result{Key: key, Status: StatusIdle}
}

// Subscribe delivers every transition of key and keeps its settled entry
// around until cancelled. Only the latest undelivered state is kept. The
// returned cancel func closes the channel.
func (c *Cache) Subscribe(key Key) (<-chan Result, func()) {
	sub := &subscription{ch: make(chan Result, 1)}
	c.mu.Lock()
	set, ok := c.subs[key]
	if !ok {
		set = make(map[*subscription]struct{})
		c.subs[key] = set
	}
	set[sub] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if set, ok := c.subs[key]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(c.subs, key)
					if c.snapshot(key).Status.Settled() {
						delete(c.entries, key)
					}
				}
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

func (s *subscription) deliver(res Result) {
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- res:
	default:
	}
}
