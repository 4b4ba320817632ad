package keylock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAcquire_MutualExclusionPerKey(t *testing.T) {
	r := New()

	const workers = 20
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := r.Acquire(context.Background(), "order:1")
			if err != nil {
				t.Errorf("acquire failed: %v", err)
				return
			}
			defer release()
			// Unsynchronized increment; only the lock keeps it correct.
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("expected %d increments, got %d", workers, counter)
	}
}

func TestAcquire_IndependentKeysDoNotBlock(t *testing.T) {
	r := New()

	release1, err := r.Acquire(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("acquire order:1 failed: %v", err)
	}
	defer release1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	release2, err := r.Acquire(ctx, "order:2")
	if err != nil {
		t.Fatalf("independent key must not block: %v", err)
	}
	release2()
}

func TestAcquire_TimesOutWhileHeld(t *testing.T) {
	r := New()

	release, err := r.Acquire(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Acquire(ctx, "order:1"); err == nil {
		t.Fatal("expected timeout while the key is held")
	}

	release()

	// The key must be usable again after release.
	release2, err := r.Acquire(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release2()
}

func TestRelease_IsIdempotent(t *testing.T) {
	r := New()

	release, err := r.Acquire(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	release()
	release() // second call must be a no-op, not a double unlock

	release2, err := r.Acquire(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("acquire after double release failed: %v", err)
	}
	release2()
}

func TestRegistry_DropsIdleKeys(t *testing.T) {
	r := New()

	release, err := r.Acquire(context.Background(), "order:1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	release()

	r.mu.Lock()
	n := len(r.locks)
	r.mu.Unlock()
	if n != 0 {
		t.Errorf("idle keys must be dropped, registry still holds %d", n)
	}
}
