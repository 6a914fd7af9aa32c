// Package router bridges broker subscriptions into registry sends: one
// background task per websocket connection.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/elevatecrm/realtime/internal/adapter/otel"
	"github.com/elevatecrm/realtime/internal/domain/event"
	"github.com/elevatecrm/realtime/internal/port/eventbus"
)

// Recipients is the slice of the connection registry the router needs.
type Recipients interface {
	SendToUser(ctx context.Context, tenantID, userID string, payload any)
}

// Frame is the outbound websocket frame wrapping one forwarded event.
type Frame struct {
	Type      string          `json:"type"`
	EventType event.Type      `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	EventID   string          `json:"event_id"`
}

// Router forwards a tenant's broker events to one user's live connections.
type Router struct {
	bus     eventbus.Bus
	reg     Recipients
	metrics *otel.Metrics
}

// New creates a Router. metrics may be nil.
func New(bus eventbus.Bus, reg Recipients, metrics *otel.Metrics) *Router {
	return &Router{bus: bus, reg: reg, metrics: metrics}
}

// Run subscribes to the fixed event-type set for the connection's tenant and
// forwards each event to the owning user until ctx is cancelled.
//
// On an unrecoverable subscription error the task logs and exits without
// touching the transport: the gateway's own read-loop failure is the
// authoritative disconnect signal, and tearing the connection down from here
// would race a read loop that is still serving it.
func (r *Router) Run(ctx context.Context, tenantID, userID, connectionID string) {
	if r.bus == nil {
		slog.Warn("broker unavailable, connection gets no realtime events",
			"connection_id", connectionID, "tenant_id", tenantID)
		return
	}

	err := r.bus.Subscribe(ctx, tenantID, event.All, func(ctx context.Context, ev event.Event) error {
		r.reg.SendToUser(ctx, tenantID, userID, Frame{
			Type:      "realtime_event",
			EventType: ev.Type,
			Data:      ev.Data,
			Timestamp: ev.Timestamp,
			EventID:   ev.ID,
		})
		if r.metrics != nil {
			r.metrics.EventsDelivered.Add(ctx, 1)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("event router stopped",
			"connection_id", connectionID, "tenant_id", tenantID, "error", err)
	}
}
