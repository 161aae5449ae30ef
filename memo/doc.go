// Package memo memoizes computations behind an explicitly owned cache.
//
// A Func wraps a computation and a cache.CacheService. The first call for a
// slot runs the computation and stores its result; later calls, from any
// caller, return the stored result without running it again. Nothing is
// global: whoever builds the Func owns its slots and can drop them with Clear
// or Forget.
//
//	bigFunc, err := memo.New("big_func", func(ctx context.Context) (int, error) {
//		fmt.Println("Executing a very big func")
//		return 42, nil
//	})
//	v, err := bigFunc.Get(ctx) // prints once, returns 42
//	v, err = bigFunc.Get(ctx)  // silent, returns 42
//
// NewKeyed gives one slot per distinct argument tuple, keyed through a
// cache.KeySerializer.
//
// Calls on one Func are serialized, so concurrent first calls still run the
// computation once. Errors are never cached.
package memo
