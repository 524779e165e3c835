package feed

import (
	"context"
	"time"
)

// Once performs a single fetch outside any subscription and reports it as a Result.
func Once[T any](ctx context.Context, timeout time.Duration, fetch Fetcher[T]) Result[T] {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	value, err := fetch(ctx)
	return apply(Result[T]{}, value, err, time.Now())
}
