package service

import (
	"context"
	"log/slog"

	"github.com/elevatecrm/realtime/internal/adapter/otel"
	"github.com/elevatecrm/realtime/internal/domain/event"
	"github.com/elevatecrm/realtime/internal/port/eventbus"
	"github.com/elevatecrm/realtime/internal/tenant"
)

// RealtimeService is the publish-side facade the rest of the platform calls
// from domain mutations. Broker failures are logged and swallowed here: a
// stock move must commit whether or not real-time delivery worked.
type RealtimeService struct {
	bus     eventbus.Bus
	metrics *otel.Metrics
}

// NewRealtimeService creates a RealtimeService. bus may be nil when the
// broker is unavailable; publishes then degrade to logged drops. metrics may
// be nil.
func NewRealtimeService(bus eventbus.Bus, metrics *otel.Metrics) *RealtimeService {
	return &RealtimeService{bus: bus, metrics: metrics}
}

// publish builds and publishes one event. An empty tenantID falls back to
// the context's tenant scope; absence of both is a caller bug and fails
// fast. Broker errors are swallowed after logging.
func (s *RealtimeService) publish(ctx context.Context, typ event.Type, tenantID string, payload any) error {
	if tenantID == "" {
		var err error
		tenantID, err = tenant.MustFromContext(ctx)
		if err != nil {
			return err
		}
	}

	ev, err := event.New(typ, tenantID, payload)
	if err != nil {
		slog.Error("build event failed", "event_type", typ, "error", err)
		return nil
	}

	if s.bus == nil {
		slog.Warn("broker unavailable, dropping event", "event_type", typ, "tenant_id", tenantID)
		s.dropped(ctx)
		return nil
	}

	if err := s.bus.Publish(ctx, ev); err != nil {
		slog.Error("publish failed, dropping event",
			"event_type", typ, "tenant_id", tenantID, "event_id", ev.ID, "error", err)
		s.dropped(ctx)
		return nil
	}

	if s.metrics != nil {
		s.metrics.EventsPublished.Add(ctx, 1)
	}
	slog.Debug("event published", "event_type", typ, "tenant_id", tenantID, "event_id", ev.ID)
	return nil
}

func (s *RealtimeService) dropped(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.EventsDropped.Add(ctx, 1)
	}
}

// PublishStockUpdate publishes an inventory quantity change.
func (s *RealtimeService) PublishStockUpdate(ctx context.Context, tenantID, productID string, oldQuantity, newQuantity int, locationID string) error {
	return s.publish(ctx, event.TypeStockUpdate, tenantID, event.StockUpdate{
		ProductID:   productID,
		OldQuantity: oldQuantity,
		NewQuantity: newQuantity,
		LocationID:  locationID,
		Change:      newQuantity - oldQuantity,
	})
}

// PublishOrderUpdate publishes an order status transition.
func (s *RealtimeService) PublishOrderUpdate(ctx context.Context, tenantID, orderID, status, previousStatus string) error {
	return s.publish(ctx, event.TypeOrderUpdate, tenantID, event.OrderUpdate{
		OrderID:        orderID,
		Status:         status,
		PreviousStatus: previousStatus,
	})
}

// PublishUserActivity publishes a client-side user action.
func (s *RealtimeService) PublishUserActivity(ctx context.Context, tenantID, userID, activityType string, details map[string]any) error {
	return s.publish(ctx, event.TypeUserActivity, tenantID, event.UserActivity{
		UserID:       userID,
		ActivityType: activityType,
		Details:      details,
	})
}

// PublishSystemNotification publishes a system notification. An empty
// priority defaults to "normal".
func (s *RealtimeService) PublishSystemNotification(ctx context.Context, tenantID, notificationType, title, message, priority string) error {
	if priority == "" {
		priority = "normal"
	}
	return s.publish(ctx, event.TypeNotification, tenantID, event.Notification{
		NotificationType: notificationType,
		Title:            title,
		Message:          message,
		Priority:         priority,
	})
}
