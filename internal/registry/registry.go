// Package registry is the process-local directory of live websocket
// connections, keyed tenant -> user -> connection. It is the single source
// of truth for "who is connected, where" and the only structure in the
// service mutated from multiple goroutines.
package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender is the send-capable handle of a registered connection. The registry
// references the transport socket; it never owns or closes it.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

// conn is one registered connection. Mutable fields are guarded by the
// registry mutex.
type conn struct {
	id          string
	userID      string
	tenantID    string
	sender      Sender
	connectedAt time.Time
	lastPingAt  time.Time
}

// TenantStats is the per-tenant breakdown reported by Snapshot.
type TenantStats struct {
	Users            int `json:"users"`
	TotalConnections int `json:"total_connections"`
}

// Registry maps tenant -> user -> connection id -> live connection.
//
// Invariant: every path in tenants leads to a registered connection, and
// empty intermediate maps are pruned immediately on removal. Stat accessors
// read live map sizes, so dangling empty containers would corrupt counts.
type Registry struct {
	mu      sync.RWMutex
	tenants map[string]map[string]map[string]*conn
	byID    map[string]*conn
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		tenants: make(map[string]map[string]map[string]*conn),
		byID:    make(map[string]*conn),
	}
}

// Connect registers an accepted connection and returns its fresh connection
// id. Safe under concurrent admissions.
func (r *Registry) Connect(sender Sender, userID, tenantID string) string {
	c := &conn{
		id:          uuid.NewString(),
		userID:      userID,
		tenantID:    tenantID,
		sender:      sender,
		connectedAt: time.Now().UTC(),
		lastPingAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	users, ok := r.tenants[tenantID]
	if !ok {
		users = make(map[string]map[string]*conn)
		r.tenants[tenantID] = users
	}
	conns, ok := users[userID]
	if !ok {
		conns = make(map[string]*conn)
		users[userID] = conns
	}
	conns[c.id] = c
	r.byID[c.id] = c
	r.mu.Unlock()

	slog.Info("connection registered", "connection_id", c.id, "user_id", userID, "tenant_id", tenantID)
	return c.id
}

// Disconnect removes the connection from all levels of the map, pruning
// now-empty user and tenant containers. Unknown ids are a no-op: the close
// path and the error path may both call it for the same connection.
func (r *Registry) Disconnect(id string) {
	r.mu.Lock()
	c, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, id)
	if users, ok := r.tenants[c.tenantID]; ok {
		if conns, ok := users[c.userID]; ok {
			delete(conns, id)
			if len(conns) == 0 {
				delete(users, c.userID)
			}
		}
		if len(users) == 0 {
			delete(r.tenants, c.tenantID)
		}
	}
	r.mu.Unlock()

	slog.Info("connection removed", "connection_id", id, "user_id", c.userID, "tenant_id", c.tenantID)
}

// Touch records ping activity for the connection.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	if c, ok := r.byID[id]; ok {
		c.lastPingAt = time.Now().UTC()
	}
	r.mu.Unlock()
}

// SendToUser delivers the payload to every live connection of the user,
// best effort. A failed socket causes removal of only that connection;
// delivery to the user's other connections continues.
func (r *Registry) SendToUser(ctx context.Context, tenantID, userID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal outbound payload failed", "error", err)
		return
	}
	r.sendRaw(ctx, tenantID, userID, data)
}

func (r *Registry) sendRaw(ctx context.Context, tenantID, userID string, data []byte) {
	r.mu.RLock()
	var targets []*conn
	if users, ok := r.tenants[tenantID]; ok {
		for _, c := range users[userID] {
			targets = append(targets, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range targets {
		if err := c.sender.Send(ctx, data); err != nil {
			slog.Warn("send failed, dropping connection",
				"connection_id", c.id, "user_id", userID, "tenant_id", tenantID, "error", err)
			r.Disconnect(c.id)
		}
	}
}

// SendToTenant fans the payload out to every user registered under the
// tenant, optionally excluding one user id.
func (r *Registry) SendToTenant(ctx context.Context, tenantID string, payload any, excludeUserID string) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal outbound payload failed", "error", err)
		return
	}

	r.mu.RLock()
	userIDs := make([]string, 0, len(r.tenants[tenantID]))
	for uid := range r.tenants[tenantID] {
		if uid == excludeUserID {
			continue
		}
		userIDs = append(userIDs, uid)
	}
	r.mu.RUnlock()

	for _, uid := range userIDs {
		r.sendRaw(ctx, tenantID, uid, data)
	}
}

// Broadcast fans the payload out to every tenant, optionally excluding one.
func (r *Registry) Broadcast(ctx context.Context, payload any, excludeTenantID string) {
	r.mu.RLock()
	tenantIDs := make([]string, 0, len(r.tenants))
	for tid := range r.tenants {
		if tid == excludeTenantID {
			continue
		}
		tenantIDs = append(tenantIDs, tid)
	}
	r.mu.RUnlock()

	for _, tid := range tenantIDs {
		r.SendToTenant(ctx, tid, payload, "")
	}
}

// TenantUserCount returns the number of distinct connected users in a tenant.
func (r *Registry) TenantUserCount(tenantID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants[tenantID])
}

// UserConnections returns the number of live connections for one user.
func (r *Registry) UserConnections(tenantID, userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants[tenantID][userID])
}

// TotalConnections returns the number of live connections in the process.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// ActiveTenants returns the number of tenants with at least one connection.
func (r *Registry) ActiveTenants() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}

// Snapshot returns the per-tenant user and connection breakdown.
func (r *Registry) Snapshot() map[string]TenantStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]TenantStats, len(r.tenants))
	for tid, users := range r.tenants {
		total := 0
		for _, conns := range users {
			total += len(conns)
		}
		out[tid] = TenantStats{Users: len(users), TotalConnections: total}
	}
	return out
}
