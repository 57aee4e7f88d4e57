package attendance

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestReconcilerAppliesOnlyNewestGeneration(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var applied []int
	done := make(chan struct{}, 4)

	calls := 0
	r := NewReconciler(func(ctx context.Context) (int, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			// first fetch is slow and ignores cancellation
			<-release
		}
		return n, nil
	}, func(v int, err error) {
		mu.Lock()
		applied = append(applied, v)
		mu.Unlock()
		done <- struct{}{}
	})

	r.Invalidate(context.Background())
	gen := r.Invalidate(context.Background())
	if gen != 2 {
		t.Fatalf("generation = %d, want 2", gen)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("newest fetch was never applied")
	}
	close(release)
	r.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 || applied[0] != 2 {
		t.Fatalf("applied = %v, want [2]", applied)
	}
}

func TestReconcilerDropsResultsAfterClose(t *testing.T) {
	started := make(chan struct{})
	appliedCh := make(chan int, 1)
	r := NewReconciler(func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 1, ctx.Err()
	}, func(v int, err error) {
		appliedCh <- v
	})

	r.Invalidate(context.Background())
	<-started
	r.Close()

	select {
	case v := <-appliedCh:
		t.Fatalf("result %d applied after Close", v)
	default:
	}
	if gen := r.Invalidate(context.Background()); gen != 0 {
		t.Fatalf("Invalidate after Close returned generation %d", gen)
	}
}
