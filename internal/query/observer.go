package query

import (
	"context"
	"sync"
)

// Observer follows one key at a time on behalf of a view. It holds a
// subscription to its current key; results for keys it no longer follows are dropped.
type Observer struct {
	cache *Cache
	ctx   context.Context

	mu     sync.Mutex
	key    Key
	gen    uint64
	result Result
	done   chan struct{}
	cancel func()
	closed bool
}

// Observe returns an observer whose fetches inherit ctx's values.
func (c *Cache) Observe(ctx context.Context) *Observer {
	return &Observer{cache: c, ctx: context.WithoutCancel(ctx)}
}

// SetKey points the observer at key and starts its fetch. Nothing happens
// when key is already current.
func (o *Observer) SetKey(key Key, fn Fetcher) {
	o.mu.Lock()
	if o.closed || (o.gen > 0 && o.key == key) {
		o.mu.Unlock()
		return
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.gen++
	gen := o.gen
	o.key = key
	updates, cancel := o.cache.Subscribe(key)
	o.cancel = cancel
	o.result = o.cache.Get(key)
	o.result.Status = StatusPending
	done := make(chan struct{})
	o.done = done
	o.mu.Unlock()

	go o.follow(gen, updates, done)
	go o.cache.Fetch(o.ctx, key, fn)
}

// follow records settled states of one subscription until it is cancelled.
func (o *Observer) follow(gen uint64, updates <-chan Result, done chan struct{}) {
	settled := false
	for res := range updates {
		if !res.Status.Settled() {
			continue
		}
		o.mu.Lock()
		if o.gen == gen && !o.closed {
			o.result = res
		}
		o.mu.Unlock()
		if !settled {
			settled = true
			close(done)
		}
	}
}

// Key returns the current key and whether one has been set.
func (o *Observer) Key() (Key, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.key, o.gen > 0
}

// Result returns the latest snapshot for the current key.
func (o *Observer) Result() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen == 0 {
		return Result{Status: StatusIdle}
	}
	return o.result
}

// Wait blocks until the current key settles or ctx ends and returns the
// snapshot at that point.
func (o *Observer) Wait(ctx context.Context) Result {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done == nil {
		return o.Result()
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
	return o.Result()
}

// Close releases the current key and stops accepting results.
func (o *Observer) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// Outcome is a typed view of a Result for templates.
type Outcome[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Pending reports whether the data has not arrived yet.
func (o Outcome[T]) Pending() bool { return o.Status == StatusPending || o.Status == StatusIdle }

// Failed reports whether the fetch ended in error.
func (o Outcome[T]) Failed() bool { return o.Status == StatusError }

// Ready reports whether Data holds a successful response.
func (o Outcome[T]) Ready() bool { return o.Status == StatusSuccess }

// OutcomeOf converts a snapshot. Data of an unexpected type is reported as an error.
func OutcomeOf[T any](res Result) Outcome[T] {
	out := Outcome[T]{Status: res.Status, Err: res.Err}
	if res.Status != StatusSuccess {
		return out
	}
	data, ok := res.Data.(T)
	if !ok && res.Data != nil {
		out.Status = StatusError
		out.Err = &TypeError{Key: res.Key, Got: res.Data}
		return out
	}
	out.Data = data
	return out
}

// Load fetches key through the cache and returns a typed outcome.
func Load[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) Outcome[T] {
	return OutcomeOf[T](c.Fetch(ctx, key, Adapt(fn)))
}

// Adapt wraps a typed fetch function as a Fetcher.
func Adapt[T any](fn func(context.Context) (T, error)) Fetcher {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}
