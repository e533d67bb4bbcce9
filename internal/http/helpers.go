package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"transcoop/internal/core"
)

// Dispatch runs op with a bounded wait. When the bound passes first the caller
// gets a timeout error while op keeps running to completion on a detached
// context, so a write may or may not have landed; clients re-query. Cancelling
// ctx stops the wait, not the operation.
func Dispatch[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	opCtx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(opCtx, "Operation panicked", "panic", rec)
				done <- result{err: fmt.Errorf("operation panicked: %v", rec)}
			}
		}()
		v, err := op(opCtx)
		done <- result{v: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case res := <-done:
		return res.v, res.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", core.ErrTimeout, timeout)
	case <-ctx.Done():
		return zero, fmt.Errorf("request abandoned: %w", ctx.Err())
	}
}

// empty is returned by operations that have no payload.
type empty struct{}
