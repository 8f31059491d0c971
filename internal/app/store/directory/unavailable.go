// internal/app/store/directory/unavailable.go
package directory

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// IsUnavailable reports whether err looks like a transient store failure
// (timeout, network, server selection) rather than a data-level error.
// Callers may retry such failures; every write path is either idempotent
// or guarded against double application.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}
