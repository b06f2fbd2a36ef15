package ports

import (
	"context"
	"time"
)

// Telemetry is the injected metrics sink. The actual aggregation backend is
// an external collaborator; this interface keeps components free of any
// ambient global.
type Telemetry interface {
	Increment(name string, tags ...string)
	Measure(name string, d time.Duration, tags ...string)
}

// ErrorTracker receives unexpected errors for out-of-band reporting.
// Authentication boundaries report through it instead of letting a stack
// trace reach the browser.
type ErrorTracker interface {
	Notify(ctx context.Context, err error, context map[string]string)
}
