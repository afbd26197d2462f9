package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge-io/backend/internal/models"
)

// newTestConn builds a connection that is never run, so queued messages stay
// in the send buffer where tests can inspect them.
func newTestConn(userID uint, username string) *Connection {
	return NewConnection(context.Background(), nil, Identity{
		UserID:   userID,
		Email:    username + "@test.com",
		Username: username,
		Role:     models.RoleStudent,
		Compact:  models.UserCompact{ID: userID, Username: username},
	}, time.Minute)
}

// drainOne pops a single queued message and decodes its envelope.
func drainOne(t *testing.T, conn *Connection) Envelope {
	t.Helper()
	select {
	case msg := <-conn.send:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(msg, &envelope))
		return envelope
	default:
		t.Fatal("expected a queued message, send buffer is empty")
		return Envelope{}
	}
}

func assertNoMessage(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case msg := <-conn.send:
		t.Fatalf("expected no queued message, got %s", msg)
	default:
	}
}

func TestRegisterAutoJoinsDefaultRooms(t *testing.T) {
	registry := NewRegistry()
	conn := newTestConn(7, "alice")
	registry.Register(conn)

	assert.Equal(t, 1, registry.ConnectionCount())
	assert.Equal(t, 1, registry.RoomSize(UserRoom(7)))
	assert.Equal(t, 1, registry.RoomSize(RoomGeneral))
	assert.Equal(t, 1, registry.RoomSize(RoomNotifications))
}

func TestJoinAndLeave(t *testing.T) {
	registry := NewRegistry()
	conn := newTestConn(1, "alice")
	registry.Register(conn)

	registry.Join(conn, ProjectRoom(42))
	assert.Equal(t, 1, registry.RoomSize(ProjectRoom(42)))

	registry.Leave(conn.ID(), ProjectRoom(42))
	assert.Equal(t, 0, registry.RoomSize(ProjectRoom(42)))
}

func TestJoinIgnoresUnregisteredConnection(t *testing.T) {
	registry := NewRegistry()
	conn := newTestConn(1, "alice")

	registry.Join(conn, ProjectRoom(1))
	assert.Equal(t, 0, registry.RoomSize(ProjectRoom(1)))
}

func TestDeregisterCleansAllRooms(t *testing.T) {
	registry := NewRegistry()
	conn := newTestConn(3, "bob")
	registry.Register(conn)
	registry.Join(conn, ProjectRoom(1))
	registry.Join(conn, ForumRoom(2))

	registry.Deregister(conn.ID())

	assert.Equal(t, 0, registry.ConnectionCount())
	assert.Equal(t, 0, registry.RoomSize(UserRoom(3)))
	assert.Equal(t, 0, registry.RoomSize(ProjectRoom(1)))
	assert.Equal(t, 0, registry.RoomSize(ForumRoom(2)))

	// Deliveries after deregistration must not reach the connection
	registry.ToRoom(RoomGeneral, []byte(`{"event":"x"}`))
	assertNoMessage(t, conn)
}

func TestToRoomDeliversToMembersOnly(t *testing.T) {
	registry := NewRegistry()
	inRoom := newTestConn(1, "alice")
	outOfRoom := newTestConn(2, "bob")
	registry.Register(inRoom)
	registry.Register(outOfRoom)
	registry.Join(inRoom, ProjectRoom(5))

	msg, err := Marshal(EventProjectLikeUpdate, LikeUpdate{ProjectID: 5, Liked: true})
	require.NoError(t, err)
	registry.ToRoom(ProjectRoom(5), msg)

	envelope := drainOne(t, inRoom)
	assert.Equal(t, EventProjectLikeUpdate, envelope.Event)
	assertNoMessage(t, outOfRoom)
}

func TestToRoomExceptSkipsSender(t *testing.T) {
	registry := NewRegistry()
	sender := newTestConn(1, "alice")
	watcher := newTestConn(2, "bob")
	registry.Register(sender)
	registry.Register(watcher)
	registry.Join(sender, TypingRoom("project", "9"))
	registry.Join(watcher, TypingRoom("project", "9"))

	registry.ToRoomExcept(TypingRoom("project", "9"), sender.ID(), []byte(`{"event":"typing:start"}`))

	assertNoMessage(t, sender)
	envelope := drainOne(t, watcher)
	assert.Equal(t, EventTypingStart, envelope.Event)
}

func TestToUserReachesEveryConnectionOfThatUser(t *testing.T) {
	registry := NewRegistry()
	// Same user connected twice, e.g. two browser tabs
	tab1 := newTestConn(4, "carol")
	tab2 := newTestConn(4, "carol")
	other := newTestConn(5, "dave")
	registry.Register(tab1)
	registry.Register(tab2)
	registry.Register(other)

	registry.ToUser(4, []byte(`{"event":"project:liked"}`))

	drainOne(t, tab1)
	drainOne(t, tab2)
	assertNoMessage(t, other)
}

func TestToAllExcept(t *testing.T) {
	registry := NewRegistry()
	leaver := newTestConn(1, "alice")
	stayer := newTestConn(2, "bob")
	registry.Register(leaver)
	registry.Register(stayer)

	registry.ToAllExcept(leaver.ID(), []byte(`{"event":"user:offline"}`))

	assertNoMessage(t, leaver)
	envelope := drainOne(t, stayer)
	assert.Equal(t, EventUserOffline, envelope.Event)
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	conn := newTestConn(1, "alice")
	for i := 0; i < cap(conn.send); i++ {
		conn.Send([]byte("fill"))
	}
	// Must not block
	conn.Send([]byte("overflow"))
	assert.Equal(t, cap(conn.send), len(conn.send))
}

func TestCanJoin(t *testing.T) {
	identity := Identity{UserID: 10}

	cases := []struct {
		room    string
		allowed bool
	}{
		{RoomGeneral, true},
		{RoomNotifications, true},
		{UserRoom(10), true},
		{UserRoom(11), false}, // someone else's personal room
		{ProjectRoom(1), true},
		{ForumRoom(2), true},
		{TypingRoom("project", "3"), true},
		{"project:", false}, // prefix with no id
		{"admin-secrets", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanJoin(identity, tc.room), "room %q", tc.room)
	}
}
