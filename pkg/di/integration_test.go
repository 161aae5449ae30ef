package di

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestNewMemo_SharesContainerService(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	ctx := context.Background()
	runs := map[string]int{}
	var mu sync.Mutex
	counter := func(name string, v int) func(context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			mu.Lock()
			runs[name]++
			mu.Unlock()
			return v, nil
		}
	}

	a, err := NewMemo(container, "ExecuteBigFunc", counter("a", 42))
	if err != nil {
		t.Fatalf("NewMemo() failed: %v", err)
	}
	b, err := NewMemo(container, "GetTheS", counter("b", 7))
	if err != nil {
		t.Fatalf("NewMemo() failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if v, err := a.Get(ctx); err != nil || v != 42 {
			t.Fatalf("a.Get() = %d, %v", v, err)
		}
		if v, err := b.Get(ctx); err != nil || v != 7 {
			t.Fatalf("b.Get() = %d, %v", v, err)
		}
	}

	if runs["a"] != 1 || runs["b"] != 1 {
		t.Errorf("expected one run each, got %v", runs)
	}
	if n := container.CacheService().Len(); n != 2 {
		t.Errorf("expected 2 slots in the container service, got %d", n)
	}

	if err := container.Reset(ctx); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if _, err := a.Get(ctx); err != nil {
		t.Fatalf("a.Get() after reset failed: %v", err)
	}
	if runs["a"] != 2 {
		t.Errorf("expected recompute after container reset, got %d", runs["a"])
	}
}

func TestNewKeyedMemo(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	ctx := context.Background()
	calls := 0
	greet, err := NewKeyedMemo[string](container, "greet", func(ctx context.Context, args ...any) (string, error) {
		calls++
		if len(args) != 1 {
			return "", errors.New("greet needs a name")
		}
		return fmt.Sprintf("hello %v", args[0]), nil
	})
	if err != nil {
		t.Fatalf("NewKeyedMemo() failed: %v", err)
	}

	for _, name := range []string{"ada", "bob", "ada"} {
		got, err := greet.Call(ctx, name)
		if err != nil {
			t.Fatalf("Call(%q) failed: %v", name, err)
		}
		if got != "hello "+name {
			t.Errorf("Call(%q) = %q", name, got)
		}
	}
	if calls != 2 {
		t.Errorf("expected 2 computations, got %d", calls)
	}

	if _, err := greet.Call(ctx); err == nil {
		t.Error("expected error to propagate from computation")
	}
}

func TestConcurrentMemoAccess(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}

	ctx := context.Background()
	square, err := NewKeyedMemo[int](container, "square", func(ctx context.Context, args ...any) (int, error) {
		n := args[0].(int)
		return n * n, nil
	})
	if err != nil {
		t.Fatalf("NewKeyedMemo() failed: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 50; n++ {
				got, err := square.Call(ctx, n)
				if err != nil || got != n*n {
					t.Errorf("Call(%d) = %d, %v", n, got, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if square.Calls() != 50 {
		t.Errorf("expected 50 computations, got %d", square.Calls())
	}
}
