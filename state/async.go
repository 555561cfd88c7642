package state

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Farhad7860/TaskFlow/logging"
	"github.com/Farhad7860/TaskFlow/session"
)

// ErrSuperseded is returned to the caller whose result was discarded because a
// newer request for the same resource was dispatched after it.
var ErrSuperseded = errors.New("superseded by a newer request")

type Phase int

const (
	Pending Phase = iota
	Fulfilled
	Rejected
)

func (p Phase) String() string {
	return [...]string{"pending", "fulfilled", "rejected"}[p]
}

// Snapshot is an immutable copy of a slice plus its loading metadata.
type Snapshot[S any] struct {
	State     S
	IsLoading bool
	Error     string
}

// Transition is delivered to subscribers after every phase change.
type Transition struct {
	Slice string
	Op    string
	Phase Phase
	Err   error
}

// Sessions supplies the credential for authenticated operations. The
// services layer checks it after local validation, before any request.
type Sessions interface {
	Current() session.Session
}

type subscriber[S any] func(Snapshot[S], Transition)

// core is the mutex-guarded container behind every slice. Only operation
// outcomes and explicit resets mutate it.
type core[S any] struct {
	name    string
	timeout time.Duration
	clone   func(S) S
	initial func() S

	mu      sync.Mutex
	state   S
	pending int
	err     string
	gens    map[string]uint64
	cancels map[string]context.CancelFunc
	// epoch changes on every reset; results dispatched in an older epoch are dropped.
	epoch  uint64
	ops    map[uint64]context.CancelFunc
	nextOp uint64
	subs    map[int]subscriber[S]
	nextSub int
}

func newCore[S any](name string, timeout time.Duration, initial func() S, clone func(S) S) *core[S] {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &core[S]{
		name:    name,
		timeout: timeout,
		clone:   clone,
		initial: initial,
		state:   initial(),
		gens:    make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
		ops:     make(map[uint64]context.CancelFunc),
		subs:    make(map[int]subscriber[S]),
	}
}

func (c *core[S]) snapshotLocked() Snapshot[S] {
	return Snapshot[S]{State: c.clone(c.state), IsLoading: c.pending > 0, Error: c.err}
}

func (c *core[S]) Snapshot() Snapshot[S] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every transition and returns the unsubscribe func.
func (c *core[S]) Subscribe(fn func(Snapshot[S], Transition)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *core[S]) notify(snap Snapshot[S], tr Transition) {
	c.mu.Lock()
	subs := make([]subscriber[S], 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(snap, tr)
	}
}

// mutate applies a local change that is not an operation outcome, such as an
// invalidation from another slice.
func (c *core[S]) mutate(op string, fn func(*S)) {
	c.mu.Lock()
	fn(&c.state)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap, Transition{Slice: c.name, Op: op, Phase: Fulfilled})
}

// reset restores the initial state, clears the error and cancels every
// operation in flight. Their loading counters still settle, but their
// results never reach the new state.
func (c *core[S]) reset() {
	c.mu.Lock()
	c.state = c.initial()
	c.err = ""
	c.epoch++
	for _, cancel := range c.ops {
		cancel()
	}
	for key := range c.cancels {
		delete(c.cancels, key)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap, Transition{Slice: c.name, Op: "reset", Phase: Fulfilled})
}

// run executes call through the pending -> fulfilled|rejected envelope.
//
// A non-empty key makes the operation superseding: a newer run with the same
// key cancels this one and this one's result is dropped. apply runs under the
// slice lock; it returns false to drop a result it considers stale.
func run[S, T any](c *core[S], ctx context.Context, op, key string, call func(context.Context) (T, error), apply func(*S, T) bool) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.Lock()
	c.pending++
	c.err = ""
	id, epoch := c.nextOp, c.epoch
	c.nextOp++
	c.ops[id] = cancel
	var gen uint64
	if key != "" {
		if prev := c.cancels[key]; prev != nil {
			prev()
		}
		c.gens[key]++
		gen = c.gens[key]
		c.cancels[key] = cancel
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap, Transition{Slice: c.name, Op: op, Phase: Pending})

	v, err := call(ctx)

	c.mu.Lock()
	c.pending--
	delete(c.ops, id)
	superseded := c.epoch != epoch || (key != "" && c.gens[key] != gen)
	if key != "" && !superseded {
		delete(c.cancels, key)
	}
	switch {
	case superseded:
		err = ErrSuperseded
	case err != nil:
		c.err = err.Error()
	default:
		if apply != nil && !apply(&c.state, v) {
			err = ErrSuperseded
		}
		// apply may keep references into v, which the caller holds too.
		c.state = c.clone(c.state)
		c.err = ""
	}
	snap = c.snapshotLocked()
	c.mu.Unlock()

	phase := Fulfilled
	if err != nil {
		phase = Rejected
		if !errors.Is(err, ErrSuperseded) {
			logging.Logger.Warnf("Event ID: %s_REJECTED, Description: %s/%s failed: %v", strings.ToUpper(c.name), c.name, op, err)
		}
	}
	c.notify(snap, Transition{Slice: c.name, Op: op, Phase: phase, Err: err})
	return v, err
}

func withSession[T any](sessions Sessions, call func(context.Context, session.Session) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return call(ctx, sessions.Current())
	}
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return append(make([]T, 0, len(in)), in...)
}

func clonePtr[T any](in *T) *T {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
