package memo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-memo-cache/cache"
)

// Namespace prefixes every slot key written by a Func.
const Namespace = "memo"

// namespace returns the key prefix of the Func called name. The name is
// quoted as is, so distinct names never share slots.
func namespace(name string) string {
	return Namespace + cache.KeySeparator + strconv.Quote(name)
}

// ErrNilCompute is returned when a Func is built without a computation.
var ErrNilCompute = errors.New("memo: compute function is nil")

// ComputeFn is the computation behind a keyed Func. args are the arguments
// passed to Call.
type ComputeFn[T any] func(ctx context.Context, args ...any) (T, error)

// Func is an explicitly owned memoized computation. Each distinct argument
// tuple gets one slot; a call without arguments uses the single bare slot.
// The computation for a slot runs at most once until the slot is cleared.
type Func[T any] struct {
	name    string
	prefix  string
	compute ComputeFn[T]

	service cache.CacheService
	keys    cache.KeySerializer
	logger  log.Interface

	// mu serializes calls so concurrent misses on one slot compute once.
	mu       sync.Mutex
	registry *xsync.MapOf[string, struct{}]
	calls    atomic.Int64
}

// Option configures a Func.
type Option func(*options)

type options struct {
	service cache.CacheService
	keys    cache.KeySerializer
	logger  log.Interface
}

// WithService stores slots in service instead of a private sturdyc cache.
// Several Funcs may share one service; their keys never overlap as long as
// their names differ. Funcs with the same name on one service share slots.
// The service must keep slots for the life of the process: a service that
// expires or refreshes entries runs the computation again.
func WithService(service cache.CacheService) Option {
	return func(o *options) {
		o.service = service
	}
}

// WithKeySerializer overrides how arguments are turned into slot keys.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(o *options) {
		o.keys = keys
	}
}

// WithLogger sets the logger used for miss and failure events.
func WithLogger(logger log.Interface) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New memoizes a zero-argument computation.
//
// Without WithService each Func gets a private sturdyc client built from
// cache.MemoConfig. Its background eviction loop lives until the process
// exits, so programs that build many Funcs should share one service, e.g.
// through di.Container.
func New[T any](name string, compute func(ctx context.Context) (T, error), opts ...Option) (*Func[T], error) {
	if compute == nil {
		return nil, ErrNilCompute
	}
	return NewKeyed[T](name, func(ctx context.Context, _ ...any) (T, error) {
		return compute(ctx)
	}, opts...)
}

// NewKeyed memoizes a computation with one slot per distinct argument tuple.
func NewKeyed[T any](name string, compute ComputeFn[T], opts ...Option) (*Func[T], error) {
	if compute == nil {
		return nil, ErrNilCompute
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.service == nil {
		service, err := cache.NewCacheService(cache.MemoConfig())
		if err != nil {
			return nil, err
		}
		o.service = service
	}
	if o.keys == nil {
		o.keys = cache.NewDefaultKeySerializer()
	}
	if o.logger == nil {
		o.logger = log.Log
	}

	return &Func[T]{
		name:     name,
		prefix:   namespace(name),
		compute:  compute,
		service:  o.service,
		keys:     o.keys,
		logger:   o.logger.WithField("memo", name),
		registry: xsync.NewMapOf[string, struct{}](),
	}, nil
}

// Name returns the name the Func was built with.
func (f *Func[T]) Name() string {
	return f.name
}

// Get returns the value of the single bare slot, computing it on first use.
func (f *Func[T]) Get(ctx context.Context) (T, error) {
	return f.Call(ctx)
}

// Call returns the value stored for args, computing it on first use. A failed
// computation is returned unchanged and leaves the slot empty.
func (f *Func[T]) Call(ctx context.Context, args ...any) (T, error) {
	key := f.key(args...)

	f.mu.Lock()
	defer f.mu.Unlock()

	value, err := cache.GetOrFetch(ctx, f.service, key, func(ctx context.Context) (T, error) {
		f.calls.Add(1)
		f.logger.WithField("key", key).Debug("computing slot")
		return f.compute(ctx, args...)
	})
	if err != nil {
		f.logger.WithField("key", key).WithError(err).Warn("computation failed")
		return value, err
	}

	f.registry.Store(key, struct{}{})
	return value, nil
}

// Forget drops the slot for args so the next Call recomputes it.
func (f *Func[T]) Forget(ctx context.Context, args ...any) error {
	key := f.key(args...)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.service.Delete(ctx, key); err != nil {
		return err
	}
	f.registry.Delete(key)
	return nil
}

// Clear drops every slot this Func has filled and resets its call counter.
// Slots of other Funcs sharing the same service are left alone.
func (f *Func[T]) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, f.registry.Size())
	f.registry.Range(func(key string, _ struct{}) bool {
		keys = append(keys, key)
		return true
	})

	if err := f.service.InvalidateKeys(ctx, keys); err != nil {
		return err
	}

	f.registry.Clear()
	f.calls.Store(0)
	f.logger.WithField("slots", len(keys)).Debug("cleared")
	return nil
}

// Calls reports how many times the computation has run since the last Clear.
func (f *Func[T]) Calls() int {
	return int(f.calls.Load())
}

// Slots reports how many slots currently hold a value.
func (f *Func[T]) Slots() int {
	return f.registry.Size()
}

func (f *Func[T]) key(args ...any) string {
	return f.keys.SerializeKey(f.prefix, args...)
}
