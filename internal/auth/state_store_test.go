// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newTestStateStore(t *testing.T, ttl time.Duration) *StateStore {
	t.Helper()

	store, err := NewStateStore(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("failed to open state store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close state store: %v", err)
		}
	})
	return store
}

func TestStateStoreConsume(t *testing.T) {
	ctx := context.Background()

	t.Run("issued state consumes exactly once", func(t *testing.T) {
		store := newTestStateStore(t, 10*time.Minute)

		state, err := store.Issue(ctx, "google")
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		if len(state) < 40 {
			t.Errorf("state token too short: %d chars", len(state))
		}

		if err := store.Consume(ctx, state, "google"); err != nil {
			t.Fatalf("first consume failed: %v", err)
		}
		if err := store.Consume(ctx, state, "google"); !errors.Is(err, ErrStateNotFound) {
			t.Fatalf("second consume: got %v, want ErrStateNotFound", err)
		}
	})

	t.Run("unknown state rejected", func(t *testing.T) {
		store := newTestStateStore(t, 10*time.Minute)
		if err := store.Consume(ctx, "never-issued", "google"); !errors.Is(err, ErrStateNotFound) {
			t.Fatalf("got %v, want ErrStateNotFound", err)
		}
	})

	t.Run("provider mismatch burns the state", func(t *testing.T) {
		store := newTestStateStore(t, 10*time.Minute)

		state, err := store.Issue(ctx, "google")
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}

		if err := store.Consume(ctx, state, "kakao"); !errors.Is(err, ErrProviderMismatch) {
			t.Fatalf("got %v, want ErrProviderMismatch", err)
		}
		// The mismatched attempt must have consumed the state.
		if err := store.Consume(ctx, state, "google"); !errors.Is(err, ErrStateNotFound) {
			t.Fatalf("state survived mismatch: got %v, want ErrStateNotFound", err)
		}
	})

	t.Run("expired state rejected", func(t *testing.T) {
		store := newTestStateStore(t, 50*time.Millisecond)

		state, err := store.Issue(ctx, "google")
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}

		time.Sleep(100 * time.Millisecond)

		err = store.Consume(ctx, state, "google")
		// Badger TTL may have removed the row already; both outcomes mean
		// the login fails.
		if !errors.Is(err, ErrStateExpired) && !errors.Is(err, ErrStateNotFound) {
			t.Fatalf("got %v, want expired or not found", err)
		}
	})

	t.Run("concurrent consumes yield one winner", func(t *testing.T) {
		store := newTestStateStore(t, 10*time.Minute)

		state, err := store.Issue(ctx, "google")
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}

		const attempts = 8
		var wg sync.WaitGroup
		results := make(chan error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- store.Consume(ctx, state, "google")
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
			}
		}
		if wins != 1 {
			t.Errorf("consume winners = %d, want exactly 1", wins)
		}
	})
}

func TestStateStoreSweepExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestStateStore(t, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if _, err := store.Issue(ctx, "google"); err != nil {
			t.Fatalf("issue failed: %v", err)
		}
	}

	time.Sleep(100 * time.Millisecond)

	// Badger TTL may beat the sweep to some rows; what matters is that no
	// active state remains afterwards.
	if _, err := store.SweepExpired(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("active states after sweep = %d, want 0", count)
	}
}
