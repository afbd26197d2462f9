package realtime

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Broadcaster is the fan-out surface the interaction handlers publish through.
type Broadcaster interface {
	// ToRoom sends to every connection subscribed to the room.
	ToRoom(room string, message []byte)
	// ToRoomExcept sends to the room, skipping one connection.
	ToRoomExcept(room string, exclude uuid.UUID, message []byte)
	// ToUser sends to the user's personal room.
	ToUser(userID uint, message []byte)
	// ToAllExcept sends to every registered connection but one.
	ToAllExcept(exclude uuid.UUID, message []byte)
}

// Registry owns all live connections and their room membership, keyed by
// generated connection id. It is the only holder of connection state; no
// global socket-keyed maps exist elsewhere.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection
	rooms map[string]map[uuid.UUID]*Connection
	// membership per connection, for cleanup on deregister
	joined map[uuid.UUID]map[string]struct{}
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[uuid.UUID]*Connection),
		rooms:  make(map[string]map[uuid.UUID]*Connection),
		joined: make(map[uuid.UUID]map[string]struct{}),
	}
}

var _ Broadcaster = (*Registry)(nil)

// Register adds a connection and subscribes it to its default rooms:
// the personal room, the general room and the notifications room.
func (r *Registry) Register(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID()] = conn
	r.joined[conn.ID()] = make(map[string]struct{})

	r.joinLocked(conn, UserRoom(conn.Identity().UserID))
	r.joinLocked(conn, RoomGeneral)
	r.joinLocked(conn, RoomNotifications)
}

// Deregister removes a connection and withdraws it from every room.
func (r *Registry) Deregister(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[connID] {
		r.leaveLocked(connID, room)
	}
	delete(r.joined, connID)
	delete(r.conns, connID)
}

// Join subscribes a connection to a named room.
func (r *Registry) Join(conn *Connection, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn.ID()]; !ok {
		return
	}
	r.joinLocked(conn, room)
}

// Leave withdraws a connection from a named room.
func (r *Registry) Leave(connID uuid.UUID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

func (r *Registry) joinLocked(conn *Connection, room string) {
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[uuid.UUID]*Connection)
	}
	r.rooms[room][conn.ID()] = conn
	r.joined[conn.ID()][room] = struct{}{}
}

func (r *Registry) leaveLocked(connID uuid.UUID, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.joined[connID]; ok {
		delete(rooms, room)
	}
}

// RoomSize returns the number of connections subscribed to a room.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// ConnectionCount returns the number of registered connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Connections returns a snapshot of all registered connections.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// ToRoom sends to every connection subscribed to the room.
func (r *Registry) ToRoom(room string, message []byte) {
	r.ToRoomExcept(room, uuid.Nil, message)
}

// ToRoomExcept sends to the room, skipping the excluded connection.
func (r *Registry) ToRoomExcept(room string, exclude uuid.UUID, message []byte) {
	for _, conn := range r.roomSnapshot(room) {
		if conn.ID() == exclude {
			continue
		}
		conn.Send(message)
	}
}

// ToUser sends to the user's personal room.
func (r *Registry) ToUser(userID uint, message []byte) {
	r.ToRoom(UserRoom(userID), message)
}

// ToAllExcept sends to every registered connection but the excluded one.
func (r *Registry) ToAllExcept(exclude uuid.UUID, message []byte) {
	r.mu.RLock()
	copies := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		copies = append(copies, conn)
	}
	r.mu.RUnlock()

	for _, conn := range copies {
		if conn.ID() == exclude {
			continue
		}
		conn.Send(message)
	}
}

func (r *Registry) roomSnapshot(room string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	copies := make([]*Connection, 0, len(members))
	for _, conn := range members {
		copies = append(copies, conn)
	}
	return copies
}

// CanJoin is the capability check applied to client-requested room joins.
// Free-form names are rejected; only the connection's own personal room,
// the default rooms and namespaced entity rooms are allowed.
func CanJoin(identity Identity, room string) bool {
	switch room {
	case RoomGeneral, RoomNotifications:
		return true
	}
	if room == UserRoom(identity.UserID) {
		return true
	}
	for _, prefix := range []string{"project:", "forum:", "room:"} {
		if strings.HasPrefix(room, prefix) && len(room) > len(prefix) {
			return true
		}
	}
	return false
}
