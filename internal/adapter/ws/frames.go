package ws

import "time"

// Inbound client frame. Type is required; the other fields depend on it.
type clientFrame struct {
	Type       string         `json:"type"`
	EventTypes []string       `json:"event_types,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// connectionEstablished is sent once after successful admission.
type connectionEstablished struct {
	Type         string    `json:"type"`
	ConnectionID string    `json:"connection_id"`
	UserID       string    `json:"user_id"`
	TenantID     string    `json:"tenant_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// pong answers a ping on the same connection only.
type pong struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// subscriptionConfirmed echoes the requested event types. This is an
// acknowledgment contract only: the router task always listens on the full
// fixed event-type set, and no per-connection filtering is applied.
type subscriptionConfirmed struct {
	Type       string    `json:"type"`
	EventTypes []string  `json:"event_types"`
	Timestamp  time.Time `json:"timestamp"`
}

// errorFrame reports a malformed inbound frame; the connection stays open.
type errorFrame struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
