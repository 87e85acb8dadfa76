// Package async provides generic futures for running independent calls
// concurrently and collecting their results.
//
//	f := async.Async(ctx, key, func(ctx context.Context, key string) ([]byte, error) {
//		return images.Get(ctx, key)
//	})
//	data, err := f.Await()
//
// Map fans out over a slice and keeps input order:
//
//	ids, err := async.Map(ctx, blobs, upload)
//
// AwaitAll waits for every future even after one fails, so no goroutine is
// left running when it returns. AwaitWithTimeout returns ErrTimeout when the
// result is not ready in time; the underlying goroutine keeps running until
// fn returns, so fn should honor ctx.
package async
