package observability

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// FlushTelemetry syncs the logger and closes any extra resources (preference
// store, memcached client) registered for shutdown. Metrics are pull-based and
// need no flush. All closers run even if one fails; the first error is returned.
func FlushTelemetry(ctx context.Context, logger *zap.Logger, closers ...io.Closer) error {
	var first error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = fmt.Errorf("close: %w", err)
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil && first == nil {
			first = fmt.Errorf("flush logs: %w", err)
		}
	}
	return first
}
