package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-memo-cache/internal/cacheinfra"
)

// MemoTTL is the minimum TTL of the memoization profile.
const MemoTTL = cacheinfra.MemoTTL

// Config exposes the backing store options.
type Config struct {
	Capacity             int
	NumShards            int
	TTL                  time.Duration
	EvictionPercentage   int
	EarlyRefresh         *EarlyRefreshConfig
	MissingRecordStorage bool
	EvictionInterval     time.Duration
}

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// Service is a CacheService that can also drop all of its slots at once.
type Service interface {
	CacheService
	Clear(ctx context.Context) error
	Len() int
}

// DefaultConfig returns a general purpose read-through configuration.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// MemoConfig returns the profile for memoized computations: slots never
// expire and are never refreshed early.
func MemoConfig() Config {
	return convertFromInternal(cacheinfra.MemoConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.ToInternal().Validate()
}

// ValidateMemo checks that c keeps memoized slots for the life of the
// process: the TTL is at least MemoTTL and nothing is refetched in the
// background.
func (c Config) ValidateMemo() error {
	return c.ToInternal().ValidateMemo()
}

// NewCacheService constructs the default cache service implementation using the provided configuration.
func NewCacheService(cfg Config) (Service, error) {
	service, err := cacheinfra.NewSturdycService(cfg.ToInternal())
	if err != nil {
		return nil, err
	}
	return service, nil
}

// ToInternal converts c to the backing store configuration.
func (c Config) ToInternal() cacheinfra.Config {
	out := cacheinfra.Config{
		Capacity:             c.Capacity,
		NumShards:            c.NumShards,
		TTL:                  c.TTL,
		EvictionPercentage:   c.EvictionPercentage,
		MissingRecordStorage: c.MissingRecordStorage,
		EvictionInterval:     c.EvictionInterval,
	}
	if c.EarlyRefresh != nil {
		early := cacheinfra.EarlyRefreshConfig(*c.EarlyRefresh)
		out.EarlyRefresh = &early
	}
	return out
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	out := Config{
		Capacity:             cfg.Capacity,
		NumShards:            cfg.NumShards,
		TTL:                  cfg.TTL,
		EvictionPercentage:   cfg.EvictionPercentage,
		MissingRecordStorage: cfg.MissingRecordStorage,
		EvictionInterval:     cfg.EvictionInterval,
	}
	if cfg.EarlyRefresh != nil {
		early := EarlyRefreshConfig(*cfg.EarlyRefresh)
		out.EarlyRefresh = &early
	}
	return out
}
