// Package redisbus implements the event bus port over Redis pub/sub.
//
// Channel layout, shared with the existing platform:
//
//	{prefix}:{tenantID}:{eventType}   tenant-scoped fan-out
//	{prefix}:global:{eventType}       cross-tenant administrative consumers
package redisbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elevatecrm/realtime/internal/domain"
	"github.com/elevatecrm/realtime/internal/domain/event"
	"github.com/elevatecrm/realtime/internal/port/eventbus"
)

// Bus implements eventbus.Bus using a shared go-redis client. The client is
// safe for concurrent publishes; each Subscribe call opens its own pub/sub
// session, and go-redis owns reconnect and backoff for both.
type Bus struct {
	client *redis.Client
	prefix string
}

// Connect dials Redis and probes liveness within the given timeout. Failure
// returns domain.ErrBrokerUnavailable wrapped with the cause; callers run
// degraded rather than crashing.
func Connect(ctx context.Context, url, prefix string, timeout time.Duration) (*Bus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s", domain.ErrBrokerUnavailable, err)
	}

	slog.Info("redis connected", "prefix", prefix)
	return &Bus{client: client, prefix: prefix}, nil
}

// NewWithClient wraps an existing client. Used by tests and by callers that
// manage the client lifecycle themselves.
func NewWithClient(client *redis.Client, prefix string) *Bus {
	return &Bus{client: client, prefix: prefix}
}

// tenantChannel is the channel for one tenant's events of one type.
func (b *Bus) tenantChannel(tenantID string, typ event.Type) string {
	return fmt.Sprintf("%s:%s:%s", b.prefix, tenantID, typ)
}

// globalChannel carries all tenants' events of one type.
func (b *Bus) globalChannel(typ event.Type) string {
	return fmt.Sprintf("%s:global:%s", b.prefix, typ)
}

// Publish sends the event to its tenant channel and to the global channel.
// The global channel has no consumer in this service; it is kept for wire
// compatibility with external administrative consumers.
func (b *Bus) Publish(ctx context.Context, ev event.Event) error {
	data, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := b.client.Publish(ctx, b.tenantChannel(ev.TenantID, ev.Type), data).Err(); err != nil {
		return fmt.Errorf("publish tenant channel: %w", err)
	}
	if err := b.client.Publish(ctx, b.globalChannel(ev.Type), data).Err(); err != nil {
		return fmt.Errorf("publish global channel: %w", err)
	}
	return nil
}

// Subscribe listens on the tenant channels for the given event types and
// invokes handler per decoded message, in receipt order, until ctx is
// cancelled. A message that fails to decode is logged and skipped; it never
// ends the session.
func (b *Bus) Subscribe(ctx context.Context, tenantID string, types []event.Type, handler eventbus.Handler) error {
	channels := make([]string, len(types))
	for i, typ := range types {
		channels[i] = b.tenantChannel(tenantID, typ)
	}

	sub := b.client.Subscribe(ctx, channels...)
	defer func() { _ = sub.Close() }()

	// Confirm the subscription before reporting success to the caller.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("%w: subscribe: %s", domain.ErrBrokerUnavailable, err)
	}

	slog.Debug("subscribed", "tenant_id", tenantID, "channels", len(channels))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("%w: subscription closed", domain.ErrBrokerUnavailable)
			}
			ev, err := event.Decode([]byte(msg.Payload))
			if err != nil {
				slog.Error("dropping undecodable broker message", "channel", msg.Channel, "error", err)
				continue
			}
			if err := handler(ctx, ev); err != nil {
				slog.Error("event handler failed", "event_id", ev.ID, "error", err)
			}
		}
	}
}

// Ping probes broker liveness.
func (b *Bus) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrBrokerUnavailable, err)
	}
	return nil
}

// Close releases the client. Safe to call on a Bus that never connected.
func (b *Bus) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
