// Package ws implements the websocket gateway: connection admission,
// inbound frame handling, and the per-connection task pair.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/elevatecrm/realtime/internal/adapter/otel"
	"github.com/elevatecrm/realtime/internal/logger"
	"github.com/elevatecrm/realtime/internal/registry"
	"github.com/elevatecrm/realtime/internal/router"
	"github.com/elevatecrm/realtime/internal/service"
	"github.com/elevatecrm/realtime/internal/tenant"
)

// StatusAuthFailure is the close code for rejected credentials.
const StatusAuthFailure websocket.StatusCode = 4001

// Gateway upgrades HTTP requests to websocket connections and runs their
// lifecycle: authenticate, register, start the router task, relay inbound
// frames, and deregister on the way out.
type Gateway struct {
	auth     *service.AuthService
	realtime *service.RealtimeService
	reg      *registry.Registry
	router   *router.Router
	metrics  *otel.Metrics
}

// NewGateway creates a Gateway. metrics may be nil.
func NewGateway(auth *service.AuthService, realtime *service.RealtimeService, reg *registry.Registry, rt *router.Router, metrics *otel.Metrics) *Gateway {
	return &Gateway{
		auth:     auth,
		realtime: realtime,
		reg:      reg,
		router:   rt,
		metrics:  metrics,
	}
}

// sender adapts a websocket connection to the registry's send handle.
type sender struct {
	ws      *websocket.Conn
	metrics *otel.Metrics
}

func (s *sender) Send(ctx context.Context, data []byte) error {
	if err := s.ws.Write(ctx, websocket.MessageText, data); err != nil {
		if s.metrics != nil {
			s.metrics.SendFailures.Add(ctx, 1)
		}
		return err
	}
	return nil
}

// HandleWS is the websocket endpoint.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	// Authenticate before any registry entry exists. A bad token closes the
	// transport with a distinct code and never reaches registration.
	claims, err := g.auth.ValidateToken(r.Context(), service.TokenFromRequest(r))
	if err != nil {
		slog.Warn("websocket auth failed", "remote", r.RemoteAddr, "error", err)
		_ = conn.Close(StatusAuthFailure, "authentication required")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	ctx = tenant.NewContext(ctx, claims.TenantID)

	out := &sender{ws: conn, metrics: g.metrics}
	connID := g.reg.Connect(out, claims.UserID, claims.TenantID)
	ctx = logger.WithConnectionID(ctx, connID)

	if g.metrics != nil {
		g.metrics.ConnectionsActive.Add(ctx, 1)
	}

	// The deferred disconnect runs exactly once on every exit path,
	// including panics recovered upstream; the registry tolerates double
	// invocation from the send-failure path.
	defer func() {
		g.reg.Disconnect(connID)
		if g.metrics != nil {
			g.metrics.ConnectionsActive.Add(context.WithoutCancel(ctx), -1)
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	if err := g.send(ctx, out, connectionEstablished{
		Type:         "connection_established",
		ConnectionID: connID,
		UserID:       claims.UserID,
		TenantID:     claims.TenantID,
		Timestamp:    time.Now().UTC(),
	}); err != nil {
		slog.Warn("confirmation send failed", "connection_id", connID, "error", err)
		return
	}

	slog.Info("websocket connected",
		"connection_id", connID, "user_id", claims.UserID, "tenant_id", claims.TenantID)

	// Two tasks share the connection context: the router's subscribe loop
	// and this handler's receive loop. Either one ending cancels the other.
	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		g.router.Run(ctx, claims.TenantID, claims.UserID, connID)
		return nil
	})
	grp.Go(func() error {
		return g.readLoop(ctx, conn, out, claims, connID)
	})

	if err := grp.Wait(); err != nil {
		slog.Info("websocket closed", "connection_id", connID, "reason", err)
	}
}

// readLoop relays inbound client frames until the peer closes or the read
// fails. Its return is the authoritative disconnect signal.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, out *sender, claims service.Claims, connID string) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		g.handleFrame(ctx, out, claims, connID, data)
	}
}

// handleFrame dispatches one inbound client frame. Malformed frames get an
// error frame back and the connection stays open.
func (g *Gateway) handleFrame(ctx context.Context, out *sender, claims service.Claims, connID string, data []byte) {
	if g.metrics != nil {
		g.metrics.FramesReceived.Add(ctx, 1)
	}

	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Debug("malformed client frame", "connection_id", connID, "error", err)
		_ = g.send(ctx, out, errorFrame{
			Type:      "error",
			Message:   "failed to process message",
			Timestamp: time.Now().UTC(),
		})
		return
	}

	switch frame.Type {
	case "ping":
		g.reg.Touch(connID)
		_ = g.send(ctx, out, pong{Type: "pong", Timestamp: time.Now().UTC()})

	case "subscribe":
		_ = g.send(ctx, out, subscriptionConfirmed{
			Type:       "subscription_confirmed",
			EventTypes: frame.EventTypes,
			Timestamp:  time.Now().UTC(),
		})

	case "activity":
		activityType := "unknown"
		if at, ok := frame.Data["activity_type"].(string); ok && at != "" {
			activityType = at
		}
		// The one client-to-broker write path; fire and forget.
		_ = g.realtime.PublishUserActivity(ctx, claims.TenantID, claims.UserID, activityType, frame.Data)

	default:
		slog.Warn("unknown client frame type", "connection_id", connID, "frame_type", frame.Type)
	}
}

// send writes one frame to this connection only.
func (g *Gateway) send(ctx context.Context, out *sender, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return out.Send(ctx, data)
}
