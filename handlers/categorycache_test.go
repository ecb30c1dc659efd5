package handlers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCategoryCache(t *testing.T) {
	ctx := context.Background()

	newCache := func(ids map[string]int, calls *int) *CategoryCache {
		return NewCategoryCache(func(_ context.Context, slug string) (int, error) {
			*calls++
			if id, ok := ids[slug]; ok {
				return id, nil
			}
			return 0, ErrUnknownCategory
		}, time.Hour)
	}

	t.Run("read through", func(t *testing.T) {
		calls := 0
		cache := newCache(map[string]int{"running": 3}, &calls)

		for i := 0; i < 3; i++ {
			id, err := cache.Resolve(ctx, "running")
			if err != nil || id != 3 {
				t.Fatalf("Resolve = %d, %v; want 3, nil", id, err)
			}
		}
		if calls != 1 {
			t.Errorf("resolver called %d times, want 1", calls)
		}
	})

	t.Run("ttl expiry", func(t *testing.T) {
		calls := 0
		cache := newCache(map[string]int{"running": 3}, &calls)

		clock := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return clock }

		if _, err := cache.Resolve(ctx, "running"); err != nil {
			t.Fatal(err)
		}
		clock = clock.Add(59 * time.Minute)
		if _, err := cache.Resolve(ctx, "running"); err != nil {
			t.Fatal(err)
		}
		if calls != 1 {
			t.Fatalf("resolver called %d times within ttl, want 1", calls)
		}

		clock = clock.Add(2 * time.Minute)
		if _, err := cache.Resolve(ctx, "running"); err != nil {
			t.Fatal(err)
		}
		if calls != 2 {
			t.Errorf("resolver called %d times after expiry, want 2", calls)
		}
	})

	t.Run("unknown slugs are retried", func(t *testing.T) {
		calls := 0
		ids := map[string]int{}
		cache := newCache(ids, &calls)

		if _, err := cache.Resolve(ctx, "swimrun"); !errors.Is(err, ErrUnknownCategory) {
			t.Fatalf("err = %v, want ErrUnknownCategory", err)
		}

		// The category shows up later; no negative entry blocks it.
		ids["swimrun"] = 9
		id, err := cache.Resolve(ctx, "swimrun")
		if err != nil || id != 9 {
			t.Fatalf("Resolve = %d, %v; want 9, nil", id, err)
		}
		if calls != 2 {
			t.Errorf("resolver called %d times, want 2", calls)
		}
	})

	t.Run("resolver errors are passed through", func(t *testing.T) {
		boom := errors.New("db down")
		cache := NewCategoryCache(func(context.Context, string) (int, error) {
			return 0, boom
		}, time.Hour)

		if _, err := cache.Resolve(ctx, "running"); !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})
}
