// Package event defines the realtime Event value and its fixed payload shapes.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of realtime event.
type Type string

const (
	TypeStockUpdate      Type = "stock_update"
	TypeOrderUpdate      Type = "order_update"
	TypeUserActivity     Type = "user_activity"
	TypeNotification     Type = "notification"
	TypeContactUpdate    Type = "contact_update"
	TypeProductUpdate    Type = "product_update"
	TypeDashboardRefresh Type = "dashboard_refresh"
)

// All is the fixed set of event types a connection's router task listens on.
// Order is not significant.
var All = []Type{
	TypeStockUpdate,
	TypeOrderUpdate,
	TypeUserActivity,
	TypeNotification,
	TypeContactUpdate,
	TypeProductUpdate,
	TypeDashboardRefresh,
}

// Event is a single immutable realtime event. The JSON encoding is the wire
// format published to the broker and must not change shape.
type Event struct {
	Type      Type            `json:"event_type"`
	TenantID  string          `json:"tenant_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	ID        string          `json:"event_id"`
}

// New builds an Event with a fresh id and the timestamp set to now.
// The payload is marshaled once at construction; a payload that cannot be
// marshaled is a programming error and yields the marshal error.
func New(typ Type, tenantID string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      typ,
		TenantID:  tenantID,
		Data:      data,
		Timestamp: time.Now().UTC(),
		ID:        uuid.NewString(),
	}, nil
}

// Decode parses a wire message into an Event. Events published by older
// writers may omit the event id; one is generated so downstream consumers
// can rely on it being present.
func Decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return ev, nil
}

// Encode serializes the event for publication.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
