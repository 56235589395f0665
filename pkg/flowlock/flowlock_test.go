package flowlock

import (
	"context"
	"sync"
	"testing"

	"github.com/adnumaro/storyarn/pkg/errors"
)

func TestLocalAcquireRelease(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, err := l.Acquire(ctx, "flow-1")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release error: %v", err)
	}

	// Released locks are immediately reacquirable.
	release2, err := l.Acquire(ctx, "flow-1")
	if err != nil {
		t.Fatalf("reacquire error: %v", err)
	}
	release2(ctx)
}

func TestLocalConflict(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, err := l.Acquire(ctx, "flow-1")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	defer release(ctx)

	if _, err := l.Acquire(ctx, "flow-1"); !errors.Is(err, errors.ErrCodeFlowLocked) {
		t.Errorf("expected FLOW_LOCKED, got %v", err)
	}

	// Other flows are independent.
	release2, err := l.Acquire(ctx, "flow-2")
	if err != nil {
		t.Fatalf("unrelated flow blocked: %v", err)
	}
	release2(ctx)
}

func TestLocalReleaseIdempotent(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	release, err := l.Acquire(ctx, "flow-1")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	release(ctx)
	if err := release(ctx); err != nil {
		t.Errorf("second release error: %v", err)
	}
}

func TestLocalConcurrentExclusion(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	// Nobody releases, so exactly one of the racing acquires can succeed.
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(ctx, "flow-1"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}
