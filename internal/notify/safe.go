package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Safe wraps fn so that an error or a panic is logged under name and then
// dropped. The returned function reports whether fn completed cleanly.
func Safe(log *slog.Logger, name string, fn func(ctx context.Context) error) func(ctx context.Context) bool {
	return func(ctx context.Context) (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorContext(ctx, "job panicked",
					"job", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()))
				ok = false
			}
		}()

		if err := fn(ctx); err != nil {
			log.ErrorContext(ctx, "job failed",
				"job", name,
				"error", err)
			return false
		}
		return true
	}
}
