package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, "quiz:"), mr
}

func TestCacheHelperSetGet(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	type payload struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}

	if err := helper.Set(ctx, "id:1", payload{ID: 1, Title: "Algebra"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if err := helper.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != 1 || got.Title != "Algebra" {
		t.Errorf("got %+v", got)
	}
}

func TestCacheHelperGetMiss(t *testing.T) {
	helper, _ := newTestHelper(t)

	var dest map[string]string
	err := helper.Get(context.Background(), "missing", &dest)
	if !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelperNilClientDegrades(t *testing.T) {
	helper := NewCacheHelper(nil, "quiz:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", "x", time.Minute); err != nil {
		t.Fatalf("Set with nil client should be a no-op, got %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "id:1", &dest); !errors.Is(err, ErrCacheNotAvailable) {
		t.Fatalf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestCacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"score": 7}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "stats:1", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if calls != 1 || first["score"] != 7 {
		t.Fatalf("calls=%d first=%v", calls, first)
	}

	// The backfill write is async; poll until visible.
	deadline := time.Now().Add(time.Second)
	for {
		var cached map[string]int
		if err := helper.Get(ctx, "stats:1", &cached); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cache was never backfilled")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var second map[string]int
	if err := helper.CacheOrExecute(ctx, "stats:1", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute second: %v", err)
	}
	if calls != 1 {
		t.Fatalf("fetch ran %d times, want 1", calls)
	}
}

func TestCacheOrExecuteNilClientAlwaysFetches(t *testing.T) {
	helper := NewCacheHelper(nil, "")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	var dest int
	for i := 1; i <= 3; i++ {
		if err := helper.CacheOrExecute(ctx, "k", &dest, time.Minute, fetch); err != nil {
			t.Fatalf("CacheOrExecute: %v", err)
		}
		if dest != i {
			t.Fatalf("dest=%d want %d", dest, i)
		}
	}
}

func TestInvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t)
	ctx := context.Background()

	for _, key := range []string{"list:page:0", "list:page:1", "id:5"} {
		if err := helper.Set(ctx, key, "v", time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:*"); err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "list:page:0", &dest); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("list:page:0 should be gone, got %v", err)
	}
	if err := helper.Get(ctx, "id:5", &dest); err != nil {
		t.Errorf("id:5 should survive, got %v", err)
	}
}
