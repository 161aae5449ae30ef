package cache

import (
	"context"
	"errors"
	"testing"
)

// stubCacheService returns a canned result without running fetchFn.
type stubCacheService struct {
	result any
	err    error
}

func (m *stubCacheService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	return m.result, m.err
}

func (m *stubCacheService) Delete(ctx context.Context, key string) error { return nil }

func (m *stubCacheService) DeleteByPrefix(ctx context.Context, prefix string) error { return nil }

func (m *stubCacheService) InvalidateKeys(ctx context.Context, keys []string) error { return nil }

func TestGetOrFetch_NilInterface(t *testing.T) {
	stub := &stubCacheService{}

	type Answer interface{ Value() int }

	result, err := GetOrFetch[Answer](context.Background(), stub, "k", func(ctx context.Context) (Answer, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_NilPointer(t *testing.T) {
	stub := &stubCacheService{result: (*string)(nil)}

	result, err := GetOrFetch[*string](context.Background(), stub, "k", func(ctx context.Context) (*string, error) {
		return nil, nil
	})
	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrFetch_TypeAssertionFailure(t *testing.T) {
	stub := &stubCacheService{result: "wrong-type"}

	result, err := GetOrFetch[int](context.Background(), stub, "k", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value but got: %v", result)
	}
}

func TestGetOrFetch_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	stub := &stubCacheService{result: 42, err: boom}

	result, err := GetOrFetch[int](context.Background(), stub, "k", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom but got: %v", err)
	}
	if result != 0 {
		t.Errorf("expected zero value on error but got: %v", result)
	}
}

func TestGetOrFetch_DefaultService(t *testing.T) {
	svc, err := NewCacheService(MemoConfig())
	if err != nil {
		t.Fatalf("NewCacheService() failed: %v", err)
	}

	ctx := context.Background()
	key := NewDefaultKeySerializer().SerializeKey("big_func")
	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 4; i++ {
		got, err := GetOrFetch(ctx, svc, key, fetch)
		if err != nil {
			t.Fatalf("GetOrFetch() failed: %v", err)
		}
		if got != 42 {
			t.Errorf("expected 42, got %d", got)
		}
	}
	if calls != 1 {
		t.Errorf("expected one fetch, got %d", calls)
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, err := GetOrFetch(ctx, svc, key, fetch); err != nil {
		t.Fatalf("GetOrFetch() after clear failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected a second fetch after clear, got %d", calls)
	}
}
