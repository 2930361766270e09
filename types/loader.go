package types

import "context"

// Loader is the contract between the cache and whatever produces values on a miss.
type Loader interface {

	/*
		Load is called when the read-through helper misses, or when a cached value is revalidated.
		1. Cache checks memory → key not found (or revalidation requested)
		2. Cache calls Load(key)
		3. Loader fetches from the backend API
		4. On success the cache stores the result under the key
		5. On failure nothing is stored; the error is handed back to the caller

		Load may block. The context it receives is detached from the caller's cancellation,
		so a caller walking away does not abort a fetch that will still populate the cache.
	*/
	Load(ctx context.Context, key string) (any, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc func(ctx context.Context, key string) (any, error)

// Load calls f(ctx, key).
func (f LoaderFunc) Load(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}
