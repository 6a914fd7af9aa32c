// Package otel defines the service's OpenTelemetry metric instruments.
// Instruments are registered on the global meter; without an installed
// meter provider they are no-ops.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "realtime"

// Metrics holds all realtime metric instruments.
type Metrics struct {
	ConnectionsActive metric.Int64UpDownCounter
	EventsPublished   metric.Int64Counter
	EventsDelivered   metric.Int64Counter
	EventsDropped     metric.Int64Counter
	FramesReceived    metric.Int64Counter
	SendFailures      metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ConnectionsActive, err = meter.Int64UpDownCounter("realtime.connections.active",
		metric.WithDescription("Currently registered websocket connections"))
	if err != nil {
		return nil, err
	}

	m.EventsPublished, err = meter.Int64Counter("realtime.events.published",
		metric.WithDescription("Events published to the broker"))
	if err != nil {
		return nil, err
	}

	m.EventsDelivered, err = meter.Int64Counter("realtime.events.delivered",
		metric.WithDescription("Events forwarded to websocket clients"))
	if err != nil {
		return nil, err
	}

	m.EventsDropped, err = meter.Int64Counter("realtime.events.dropped",
		metric.WithDescription("Events lost to publish failures"))
	if err != nil {
		return nil, err
	}

	m.FramesReceived, err = meter.Int64Counter("realtime.frames.received",
		metric.WithDescription("Inbound client frames"))
	if err != nil {
		return nil, err
	}

	m.SendFailures, err = meter.Int64Counter("realtime.send.failures",
		metric.WithDescription("Socket writes that failed and dropped a connection"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
