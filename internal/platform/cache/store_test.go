package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

func TestStore_GetOrLoad_DeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "player-7", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	results := make(chan string, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "alias:odds_api:k towns", loader)
			if err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- v
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	for v := range results {
		if v != "player-7" {
			t.Fatalf("unexpected value %q", v)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one load, got %d", got)
	}
}

func TestStore_ExpiresEntries(t *testing.T) {
	store := NewStore[int](time.Second)
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "k", 1)
	if v, ok := store.Get(context.Background(), "k"); !ok || v != 1 {
		t.Fatalf("expected cached value, got %v %v", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := store.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted")
	}
}

func TestStore_LoaderErrorIsNotCached(t *testing.T) {
	store := NewStore[string](time.Minute)
	boom := errors.New("boom")

	if _, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
	v, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("expected reload after error, got %q %v", v, err)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	store := NewStore[string](0)
	ctx := context.Background()
	store.Set(ctx, "identity:name:k towns", "a")
	store.Set(ctx, "identity:name:jimmy butler", "b")
	store.Set(ctx, "identity:ext:1626157", "c")

	store.DeletePrefix(ctx, "identity:name:")
	if store.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", store.Len())
	}
	if _, ok := store.Get(ctx, "identity:ext:1626157"); !ok {
		t.Fatalf("expected ext entry to survive")
	}
}
