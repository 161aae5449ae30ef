// Package cache defines the storage contract behind memoized computations.
//
// A CacheService maps slot keys to computed values and runs a fetch function
// only on a miss. KeySerializer turns a call (a name plus its arguments) into
// a slot key; a call with no arguments always maps to the bare name, so a
// zero-argument computation owns exactly one slot.
//
//	svc, err := cache.NewCacheService(cache.MemoConfig())
//	if err != nil {
//		return err
//	}
//	key := cache.NewDefaultKeySerializer().SerializeKey("big_func")
//	v, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (int, error) {
//		return 42, nil
//	})
//
// The default service is backed by sturdyc. MemoConfig disables expiry in
// practice and turns off early refreshes, so a value fetched once is served
// for the rest of the process unless it is deleted explicitly.
//
// Function and channel arguments are keyed by pointer identity, which only
// holds within a single process.
package cache
