package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/skillforge-io/backend/internal/cache"
	"github.com/skillforge-io/backend/internal/logger"
)

// Hub ties the gate, the registry and the interaction service together and
// serves the WebSocket endpoint.
type Hub struct {
	gate         *Gate
	registry     *Registry
	interactions *InteractionService
	presence     *cache.RedisCache // nil disables the presence store
	readTimeout  time.Duration
}

// NewHub creates a Hub.
func NewHub(gate *Gate, registry *Registry, interactions *InteractionService, presence *cache.RedisCache, readTimeout time.Duration) *Hub {
	return &Hub{
		gate:         gate,
		registry:     registry,
		interactions: interactions,
		presence:     presence,
		readTimeout:  readTimeout,
	}
}

// Registry exposes the hub's connection registry.
func (h *Hub) Registry() *Registry { return h.registry }

// ServeWS authenticates the handshake and upgrades it to a WebSocket
// connection. The gate runs before the upgrade, so a rejected client never
// reaches a single event handler.
func (h *Hub) ServeWS(c echo.Context) error {
	user, err := h.gate.Authenticate(c.Request())
	if err != nil {
		logger.Warn("WebSocket authentication rejected", "err", err)
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	ws, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		logger.Error("Failed to accept websocket connection", "err", err)
		return nil
	}

	identity := IdentityFor(user)
	conn := NewConnection(c.Request().Context(), ws, identity, h.readTimeout)
	conn.SetOnMessage(h.route)
	conn.SetOnClose(h.onDisconnect)

	h.registry.Register(conn)
	if h.presence != nil {
		_ = h.presence.SetOnline(context.Background(), identity.UserID, "online")
	}

	logger.Info("User connected", "email", identity.Email, "connID", conn.ID().String())
	conn.Run()
	<-conn.Done()
	return nil
}

// route dispatches one inbound envelope to its event handler.
func (h *Hub) route(ctx context.Context, conn *Connection, msg []byte) {
	var envelope Envelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		sendError(conn, "Invalid message format")
		return
	}

	switch envelope.Event {
	case EventJoinRoom:
		h.handleJoin(conn, envelope.Data)
	case EventLeaveRoom:
		h.handleLeave(conn, envelope.Data)
	case EventProjectLike:
		h.interactions.HandleLike(ctx, conn, envelope.Data)
	case EventProjectComment:
		h.interactions.HandleComment(ctx, conn, envelope.Data)
	case EventForumReply:
		h.interactions.HandleReply(ctx, conn, envelope.Data)
	case EventTypingStart, EventTypingStop:
		h.handleTyping(conn, envelope.Event, envelope.Data)
	case EventStatusUpdate:
		h.handleStatus(ctx, conn, envelope.Data)
	default:
		sendError(conn, "Unknown event")
	}
}

func (h *Hub) handleJoin(conn *Connection, data json.RawMessage) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil || room == "" {
		sendError(conn, "Room name is required")
		return
	}
	if !CanJoin(conn.Identity(), room) {
		sendError(conn, "Cannot join room")
		return
	}
	h.registry.Join(conn, room)
	logger.Info("User joined room", "email", conn.Identity().Email, "room", room)
}

func (h *Hub) handleLeave(conn *Connection, data json.RawMessage) {
	var room string
	if err := json.Unmarshal(data, &room); err != nil || room == "" {
		sendError(conn, "Room name is required")
		return
	}
	h.registry.Leave(conn.ID(), room)
	logger.Info("User left room", "email", conn.Identity().Email, "room", room)
}

// handleTyping relays typing indicators to the derived room, excluding the
// sender. Fire-and-forget: no persistence, no acknowledgement.
func (h *Hub) handleTyping(conn *Connection, event string, data json.RawMessage) {
	var req TypingRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Type == "" || req.ID == "" {
		return
	}
	emit(func(msg []byte) {
		h.registry.ToRoomExcept(TypingRoom(req.Type, req.ID), conn.ID(), msg)
	}, event, TypingPayload{
		User: conn.Identity().Compact,
		Type: req.Type,
		ID:   req.ID,
	})
}

// handleStatus broadcasts a presence update to everyone but the sender.
func (h *Hub) handleStatus(ctx context.Context, conn *Connection, data json.RawMessage) {
	var req StatusRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	identity := conn.Identity()
	if h.presence != nil {
		_ = h.presence.SetOnline(ctx, identity.UserID, req.Status)
	}
	emit(func(msg []byte) {
		h.registry.ToAllExcept(conn.ID(), msg)
	}, EventUserStatus, StatusPayload{
		UserID: identity.UserID,
		User:   identity.Compact,
		Status: req.Status,
	})
}

// onDisconnect deregisters the connection and broadcasts the user going
// offline. Disconnection is never treated as an error.
func (h *Hub) onDisconnect(conn *Connection, err error) {
	identity := conn.Identity()
	h.registry.Deregister(conn.ID())
	if h.presence != nil {
		_ = h.presence.SetOffline(context.Background(), identity.UserID)
	}

	reason := ""
	if err != nil {
		reason = err.Error()
	}
	logger.Info("User disconnected", "email", identity.Email, "connID", conn.ID().String(), "reason", reason)

	emit(func(msg []byte) {
		h.registry.ToAllExcept(conn.ID(), msg)
	}, EventUserOffline, StatusPayload{
		UserID: identity.UserID,
		User:   identity.Compact,
	})
}

// Shutdown closes every live connection and waits for their pumps to stop.
func (h *Hub) Shutdown(ctx context.Context) {
	for _, conn := range h.registry.Connections() {
		conn.Close(nil)
	}
	for _, conn := range h.registry.Connections() {
		select {
		case <-conn.Done():
		case <-ctx.Done():
			return
		}
	}
}
