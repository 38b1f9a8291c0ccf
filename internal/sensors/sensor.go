// Package sensors implements the seven controller sensors of §4.1: each
// targets one Floodlight REST endpoint and splits into a prepare phase
// (fetch + decode, never touches the store) and an apply phase
// (translate the cached payload into store mutations under one tick's
// `now`). The Observer drives prepare concurrently and apply serially,
// in the order of its configured sensor list.
package sensors

import (
	"context"
	"time"

	"github.com/sdnalyzer/sdnalyzer/internal/store"
)

// Sensor is the narrow interface the Observer drives. Any pluggable
// sensor — including a future host-scan sensor — satisfies this
// without the Observer depending on it concretely.
type Sensor interface {
	// Name identifies the sensor in logs, metrics, and error messages.
	Name() string
	// Prepare fetches and decodes this tick's payload. It must not
	// touch the store. A returned error marks the tick unhealthy.
	Prepare(ctx context.Context) error
	// Apply translates the prepared payload into store mutations under
	// `now`, inside its own session/transaction.
	Apply(ctx context.Context, sess *store.Session, now time.Time) error
}
