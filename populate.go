package respcache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mindmate/respcache/types"
	"github.com/pkg/errors"
)

var (
	// ErrNilLoader is reported by a Query built without a loader.
	ErrNilLoader = errors.New("respcache: nil loader")

	// ErrLoaderPanic wraps a panic raised inside a loader.
	ErrLoaderPanic = errors.New("respcache: loader panicked")
)

// State is a snapshot of a Query.
type State struct {
	Value any
	Err   error

	// Loading is true while a load runs and no value is available yet.
	Loading bool

	// Revalidating is true while a background load runs behind a value that is already shown.
	Revalidating bool
}

type populateOptions struct {
	ttl        time.Duration
	revalidate bool
}

// PopulateOption tunes a single GetOrPopulate call.
type PopulateOption func(*populateOptions)

// WithTTL stores loaded values for d instead of the cache default.
func WithTTL(d time.Duration) PopulateOption {
	return func(o *populateOptions) { o.ttl = d }
}

// WithRevalidateOnHit serves a cached value at once and refreshes it in the background.
func WithRevalidateOnHit() PopulateOption {
	return func(o *populateOptions) { o.revalidate = true }
}

/*
Query is the observable result of GetOrPopulate.

A Query is safe for concurrent use. Observers registered with OnChange are
called from the goroutine that settled the load, never while the Query is locked.
*/
type Query struct {
	c      *TTLCache
	ctx    context.Context
	key    string
	loader types.Loader
	ttl    time.Duration

	mu        sync.Mutex
	state     State
	seq       uint64
	applied   uint64
	inflight  int
	idle      chan struct{}
	observers []func(State)

	done     chan struct{}
	doneOnce sync.Once
}

/*
GetOrPopulate returns the cached value for key, loading it with loader on a miss.

BEHAVIOR:
---------
1. Hit: the value is available immediately and IsLoading is false.
   With WithRevalidateOnHit the loader also runs in the background and the fresh
   value replaces the cached one when it arrives.
2. Miss: the loader runs in the background and IsLoading is true until it settles.
   Success stores the value with the query TTL; failure is exposed through Err and
   is never cached.

Concurrent loads of one key share a single loader call. The loader runs detached
from ctx's cancellation, so abandoning the Query does not stop the load or its
write to the cache.
*/
func (c *TTLCache) GetOrPopulate(ctx context.Context, key string, loader types.Loader, opts ...PopulateOption) *Query {
	o := populateOptions{ttl: c.engine.DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	q := &Query{
		c:      c,
		ctx:    context.WithoutCancel(ctx),
		key:    key,
		loader: loader,
		ttl:    o.ttl,
		done:   make(chan struct{}),
		idle:   closedChan(),
	}

	if loader == nil {
		q.state.Err = ErrNilLoader
		q.markDone()
		return q
	}

	if v, ok := c.Get(key); ok {
		q.state.Value = v
		q.markDone()
		if o.revalidate {
			q.revalidate()
		}
		return q
	}

	q.load(false)
	return q
}

// Value returns the current value, nil while the first load is in flight or after it failed.
func (q *Query) Value() any {
	return q.State().Value
}

// Err returns the error of the most recent load, nil once a later load succeeds.
func (q *Query) Err() error {
	return q.State().Err
}

// IsLoading reports whether a load is in flight with no value to show yet.
func (q *Query) IsLoading() bool {
	return q.State().Loading
}

// IsRevalidating reports whether a background load is refreshing a value already shown.
func (q *Query) IsRevalidating() bool {
	return q.State().Revalidating
}

func (q *Query) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Done is closed once the query first has a value or an error.
func (q *Query) Done() <-chan struct{} {
	return q.done
}

// Wait blocks until every load started so far has settled, then returns the result.
func (q *Query) Wait(ctx context.Context) (any, error) {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	st := q.State()
	return st.Value, st.Err
}

/*
Refresh forces a new loader call whatever the cache holds.
Any in-flight shared load for the key is abandoned for sharing purposes,
so this call never piggybacks on an older request.
*/
func (q *Query) Refresh(ctx context.Context) {
	if q.loader == nil {
		return
	}
	q.c.engine.Metrics.Refresh()
	q.c.sf.Forget(q.key)

	q.mu.Lock()
	if ctx != nil {
		q.ctx = context.WithoutCancel(ctx)
	}
	hasValue := q.state.Value != nil
	q.mu.Unlock()
	q.load(hasValue)
}

// OnChange registers fn to be called after every state change.
func (q *Query) OnChange(fn func(State)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, fn)
}

/*
revalidate runs a load on the revalidation workers.
When the worker queue is full the refresh is skipped and the current value stays.
*/
func (q *Query) revalidate() {
	seq := q.begin(true)
	q.c.engine.Metrics.Refresh()

	err := q.c.revalidator.Submit(func() {
		v, err, _ := q.c.sf.Do(q.key, q.flight())
		q.settle(seq, true, v, err)
	})
	if err != nil {
		q.c.engine.Logger.Warn("revalidation skipped", "key", q.key, "reason", err)
		q.cancel(seq)
	}
}

// load starts a shared flight and settles the query when it returns.
func (q *Query) load(revalidating bool) {
	seq := q.begin(revalidating)
	ch := q.c.sf.DoChan(q.key, q.flight())
	go func() {
		res := <-ch
		q.settle(seq, revalidating, res.Val, res.Err)
	}()
}

// flight is the function shared by every query joining the same singleflight call.
func (q *Query) flight() func() (any, error) {
	q.mu.Lock()
	ctx := q.ctx
	q.mu.Unlock()

	c, key, loader, ttl := q.c, q.key, q.loader, q.ttl
	return func() (any, error) {
		return c.populate(ctx, key, loader, ttl)
	}
}

func (q *Query) begin(revalidating bool) uint64 {
	q.mu.Lock()
	q.seq++
	seq := q.seq
	if q.inflight == 0 {
		q.idle = make(chan struct{})
	}
	q.inflight++
	if revalidating {
		q.state.Revalidating = true
	} else {
		q.state.Loading = true
	}
	st := q.state
	obs := q.observers
	q.mu.Unlock()

	notify(obs, st)
	return seq
}

// cancel undoes begin for a load that never started.
func (q *Query) cancel(seq uint64) {
	q.finish(seq, func(st *State, latest bool) {
		if latest {
			st.Revalidating = false
		}
	})
}

func (q *Query) settle(seq uint64, revalidating bool, v any, err error) {
	q.finish(seq, func(st *State, latest bool) {
		if !latest {
			return
		}
		st.Loading = false
		st.Revalidating = false
		if err != nil {
			// a failed revalidation keeps the value already shown
			st.Err = err
			return
		}
		st.Value = v
		st.Err = nil
	})
}

/*
finish applies a settled load to the query state.
Only the newest load may change the visible result; an older one that settles
late is dropped so a slow response cannot overwrite a fresher one.
*/
func (q *Query) finish(seq uint64, apply func(st *State, latest bool)) {
	q.mu.Lock()
	latest := seq == q.seq && seq > q.applied
	if latest {
		q.applied = seq
	}
	apply(&q.state, latest)
	q.inflight--
	if q.inflight == 0 {
		close(q.idle)
	}
	st := q.state
	obs := q.observers
	q.mu.Unlock()

	q.markDone()
	if latest {
		notify(obs, st)
	}
}

func (q *Query) markDone() {
	q.doneOnce.Do(func() { close(q.done) })
}

func notify(obs []func(State), st State) {
	for _, fn := range obs {
		fn(st)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

/*
populate is one loader call plus its cache effect.

STEPS:
------
1. Call the loader, turning a panic into ErrLoaderPanic
2. On error: report it, leave the cache untouched
3. On success: SetWithTTL, then hand the value back
*/
func (c *TTLCache) populate(ctx context.Context, key string, loader types.Loader, ttl time.Duration) (any, error) {
	id := uuid.NewString()
	start := c.engine.Clock.Now()

	v, err := safeLoad(ctx, key, loader)
	d := c.engine.Clock.Since(start)
	c.engine.Metrics.Loaded(d, err)

	if err != nil {
		c.engine.Logger.Warn("cache load failed",
			"key", key,
			"load_id", id,
			"duration", d,
			"error", err,
		)
		return nil, err
	}

	c.SetWithTTL(key, v, ttl)
	c.engine.Logger.Debug("cache populated",
		"key", key,
		"load_id", id,
		"duration", d,
	)
	return v, nil
}

func safeLoad(ctx context.Context, key string, loader types.Loader) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = errors.Wrapf(ErrLoaderPanic, "key %q: %v", key, r)
		}
	}()

	v, err = loader.Load(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "load %q", key)
	}
	return v, nil
}
