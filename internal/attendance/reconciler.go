package attendance

import (
	"context"
	"sync"
)

// Reconciler turns change notifications into re-fetches. Each Invalidate starts a new
// fetch generation and cancels the previous one; only the newest generation's result is
// applied, and nothing is applied after Close.
type Reconciler[T any] struct {
	fetch func(ctx context.Context) (T, error)
	apply func(T, error)

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	wg         sync.WaitGroup
}

func NewReconciler[T any](fetch func(ctx context.Context) (T, error), apply func(T, error)) *Reconciler[T] {
	return &Reconciler[T]{fetch: fetch, apply: apply}
}

// Invalidate schedules a re-fetch and returns its generation number.
func (r *Reconciler[T]) Invalidate(parent context.Context) uint64 {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	gen := r.generation
	ctx, cancel := context.WithCancel(parent)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer cancel()
		v, err := r.fetch(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed || gen != r.generation {
			return
		}
		r.apply(v, err)
	}()
	return gen
}

// Generation is the number of the most recent Invalidate.
func (r *Reconciler[T]) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Close cancels any in-flight fetch and waits for it to return. Results still
// arriving are dropped.
func (r *Reconciler[T]) Close() {
	r.mu.Lock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
