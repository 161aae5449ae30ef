package cacheinfra

import (
	"context"
	"reflect"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// MemoTTL is the entry lifetime used by the memoization profile. It is long
// enough that a memoized slot outlives any realistic process.
const MemoTTL = 100 * 365 * 24 * time.Hour

// Config holds the configuration for the sturdyc cache adapter.
type Config struct {
	// Capacity is the maximum number of slots the cache can hold.
	Capacity int

	// NumShards splits the slots across independently locked shards.
	NumShards int

	// TTL is how long a slot stays valid after it is written.
	TTL time.Duration

	// EvictionPercentage is the share of a full shard evicted to make room.
	// Must be between 1 and 100.
	EvictionPercentage int

	// EarlyRefresh re-runs the fetch function in the background before a slot
	// expires. Memoized computations must leave this nil, otherwise the
	// computation runs more than once.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage remembers fetches that reported sturdyc.ErrNotFound.
	MissingRecordStorage bool

	// EvictionInterval sets how often expired slots are swept. Zero keeps the
	// sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures sturdyc early refreshes.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// Validate implements validation.Validatable.
func (e EarlyRefreshConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.MaxAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.SyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&e.RetryBaseDelay, validation.Min(time.Duration(0))),
	)
}

// DefaultConfig returns a general purpose read-through configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
	}
}

// MemoConfig returns the memoization profile: slots never expire within a
// process and are never refreshed behind the caller's back.
func MemoConfig() Config {
	return Config{
		Capacity:           1024,
		NumShards:          8,
		TTL:                MemoTTL,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions maps the optional settings to sturdyc options. Capacity,
// NumShards, TTL and EvictionPercentage go straight to sturdyc.New.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate reports every invalid field at once as validation.Errors.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EarlyRefresh),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	)
}

// ValidateMemo checks c against the memoization profile on top of Validate.
// A memoized slot must outlive the process and must never be refetched in
// the background, otherwise the computation runs more than once.
func (c Config) ValidateMemo() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Min(MemoTTL).Error("must be at least MemoTTL")),
		validation.Field(&c.EarlyRefresh, validation.Nil.Error("must be nil for memoized slots")),
		validation.Field(&c.MissingRecordStorage, validation.Empty.Error("must be false for memoized slots")),
	)
}

// ConfigError reports a bad argument handed to the service.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// SturdycService is the sturdyc backed cache service.
type SturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates cfg and starts a sturdyc client for it.
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycService{client: client}, nil
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// validateFetchFn checks fetchFn has the shape func(context.Context) (T, error).
func validateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)
	if fnType.Kind() != reflect.Func {
		return &ConfigError{Field: "fetchFn", Message: "must be a function"}
	}
	if reflect.ValueOf(fetchFn).IsNil() {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}
	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}
	if !fnType.In(0).Implements(contextType) {
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}
	if !fnType.Out(1).Implements(errorType) {
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}

	return nil
}

// GetOrFetch returns the slot stored under key, running fetchFn to fill it on
// a miss. Errors from fetchFn are returned as is and nothing is stored.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}

	return s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return callFetchFn(ctx, fetchFn)
	})
}

// callFetchFn invokes a pre-validated fetch function of any result type.
func callFetchFn(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(&ctx).Elem()})

	var (
		result any
		err    error
	)
	if out := results[0]; out.IsValid() && out.CanInterface() {
		result = out.Interface()
	}
	if errValue := results[1]; !errValue.IsNil() {
		err = errValue.Interface().(error)
	}

	return result, err
}

// Delete drops a single slot.
func (s *SturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix drops every slot whose key starts with prefix.
func (s *SturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

// InvalidateKeys drops the listed slots.
func (s *SturdycService) InvalidateKeys(ctx context.Context, keys []string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Clear drops every slot.
func (s *SturdycService) Clear(ctx context.Context) error {
	return s.InvalidateKeys(ctx, s.client.ScanKeys())
}

// Len reports the number of stored slots.
func (s *SturdycService) Len() int {
	return s.client.Size()
}
