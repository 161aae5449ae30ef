package di

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"github.com/goliatone/go-memo-cache/cache"
	"github.com/goliatone/go-memo-cache/memo"
)

// Container owns the cache service, key serializer and logger shared by the
// memoized functions it builds.
type Container struct {
	cacheService  cache.Service
	keySerializer cache.KeySerializer
	config        cache.Config
	logger        log.Interface
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger handed to memoized functions.
func WithLogger(logger log.Interface) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(keys cache.KeySerializer) Option {
	return func(c *Container) {
		c.keySerializer = keys
	}
}

// NewContainer builds a container whose cache service uses config. The
// config must be a memoization profile (see cache.Config.ValidateMemo);
// a service that expires or refreshes slots would rerun computations.
func NewContainer(config cache.Config, opts ...Option) (*Container, error) {
	if err := config.ValidateMemo(); err != nil {
		return nil, fmt.Errorf("di: config is not a memoization profile: %w", err)
	}

	cacheService, err := cache.NewCacheService(config)
	if err != nil {
		return nil, err
	}

	c := &Container{
		cacheService:  cacheService,
		keySerializer: cache.NewDefaultKeySerializer(),
		config:        config,
		logger:        log.Log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewContainerWithDefaults builds a container with the memoization profile.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.MemoConfig(), opts...)
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.Service {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// Logger returns the logger handed to memoized functions.
func (c *Container) Logger() log.Interface {
	return c.logger
}

// Reset drops every slot held by the container's cache service.
func (c *Container) Reset(ctx context.Context) error {
	return c.cacheService.Clear(ctx)
}

// NewMemo builds a zero-argument memoized function backed by the container.
// Go methods cannot have type parameters, so this is a package-level function.
func NewMemo[T any](c *Container, name string, compute func(ctx context.Context) (T, error)) (*memo.Func[T], error) {
	return memo.New(name, compute, c.memoOptions()...)
}

// NewKeyedMemo builds a memoized function with one slot per argument tuple.
func NewKeyedMemo[T any](c *Container, name string, compute memo.ComputeFn[T]) (*memo.Func[T], error) {
	return memo.NewKeyed(name, compute, c.memoOptions()...)
}

func (c *Container) memoOptions() []memo.Option {
	return []memo.Option{
		memo.WithService(c.cacheService),
		memo.WithKeySerializer(c.keySerializer),
		memo.WithLogger(c.logger),
	}
}
