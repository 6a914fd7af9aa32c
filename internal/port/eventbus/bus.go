// Package eventbus defines the port for the shared pub/sub broker that fans
// events out across server processes.
package eventbus

import (
	"context"

	"github.com/elevatecrm/realtime/internal/domain/event"
)

// Handler receives decoded events from a subscription, in receipt order.
type Handler func(ctx context.Context, ev event.Event) error

// Bus bridges to the shared broker. Implementations must be safe for
// concurrent Publish calls while subscription loops are running.
type Bus interface {
	// Publish serializes the event and publishes it to both the
	// tenant-scoped channel and the global channel for its event type.
	Publish(ctx context.Context, ev event.Event) error

	// Subscribe opens one broker subscription session covering the tenant
	// channels for the given event types and blocks, invoking handler for
	// each decoded message, until ctx is cancelled or the session drops.
	// Messages that fail to decode are logged and skipped.
	Subscribe(ctx context.Context, tenantID string, types []event.Type, handler Handler) error

	// Ping probes broker liveness.
	Ping(ctx context.Context) error

	// Close releases broker resources. Safe to call when never connected.
	Close() error
}
