// Package natsbus implements the event bus port over core NATS pub/sub.
//
// Core NATS (no JetStream) is deliberate: the delivery contract is
// at-most-once, best-effort fan-out, which is exactly core pub/sub.
// Subject layout mirrors the Redis channels with dots:
//
//	{prefix}.{tenantID}.{eventType}
//	{prefix}.global.{eventType}
package natsbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/elevatecrm/realtime/internal/domain"
	"github.com/elevatecrm/realtime/internal/domain/event"
	"github.com/elevatecrm/realtime/internal/port/eventbus"
)

// Bus implements eventbus.Bus using a NATS connection. The connection is
// safe for concurrent publishes; each Subscribe call owns its own set of
// subscriptions, and the nats client owns reconnect and backoff.
type Bus struct {
	nc     *nats.Conn
	prefix string
}

// Connect dials NATS within the given timeout. Failure returns
// domain.ErrBrokerUnavailable wrapped with the cause; callers run degraded.
func Connect(url, prefix string, timeout time.Duration) (*Bus, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBrokerUnavailable, err)
	}

	slog.Info("nats connected", "prefix", prefix)
	return &Bus{nc: nc, prefix: prefix}, nil
}

func (b *Bus) tenantSubject(tenantID string, typ event.Type) string {
	return fmt.Sprintf("%s.%s.%s", b.prefix, tenantID, typ)
}

func (b *Bus) globalSubject(typ event.Type) string {
	return fmt.Sprintf("%s.global.%s", b.prefix, typ)
}

// Publish sends the event to its tenant subject and the global subject.
func (b *Bus) Publish(_ context.Context, ev event.Event) error {
	data, err := ev.Encode()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := b.nc.Publish(b.tenantSubject(ev.TenantID, ev.Type), data); err != nil {
		return fmt.Errorf("publish tenant subject: %w", err)
	}
	if err := b.nc.Publish(b.globalSubject(ev.Type), data); err != nil {
		return fmt.Errorf("publish global subject: %w", err)
	}
	return nil
}

// Subscribe listens on the tenant subjects for the given event types and
// invokes handler per decoded message until ctx is cancelled. Undecodable
// messages are logged and skipped.
func (b *Bus) Subscribe(ctx context.Context, tenantID string, types []event.Type, handler eventbus.Handler) error {
	msgs := make(chan *nats.Msg, 64)

	subs := make([]*nats.Subscription, 0, len(types))
	for _, typ := range types {
		sub, err := b.nc.ChanSubscribe(b.tenantSubject(tenantID, typ), msgs)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return fmt.Errorf("%w: subscribe: %s", domain.ErrBrokerUnavailable, err)
		}
		subs = append(subs, sub)
	}
	defer func() {
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
	}()

	slog.Debug("subscribed", "tenant_id", tenantID, "subjects", len(subs))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			ev, err := event.Decode(msg.Data)
			if err != nil {
				slog.Error("dropping undecodable broker message", "subject", msg.Subject, "error", err)
				continue
			}
			if err := handler(ctx, ev); err != nil {
				slog.Error("event handler failed", "event_id", ev.ID, "error", err)
			}
		}
	}
}

// Ping reports whether the connection is currently up.
func (b *Bus) Ping(_ context.Context) error {
	if !b.nc.IsConnected() {
		return domain.ErrBrokerUnavailable
	}
	return nil
}

// Close drains and shuts down the connection. Safe on a Bus that never
// connected.
func (b *Bus) Close() error {
	if b.nc == nil {
		return nil
	}
	b.nc.Close()
	return nil
}
