package store

import (
	"context"
	"errors"
)

// ConflictAttempts bounds how often a versioned write is retried.
const ConflictAttempts = 3

// RetryOnConflict re-runs fn while it fails with ErrVersionConflict. fn must
// reload whatever it writes. The last error is returned unchanged.
func RetryOnConflict(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < ConflictAttempts; attempt++ {
		if err = fn(ctx); !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
