package protocol

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JerinDevasia/CodeLab/chat"
	"github.com/JerinDevasia/CodeLab/docsync"
	"github.com/JerinDevasia/CodeLab/domain"
	"github.com/JerinDevasia/CodeLab/hub"
	"github.com/JerinDevasia/CodeLab/presence"
	"github.com/JerinDevasia/CodeLab/registry"
)

type mockConn struct {
	id       string
	received [][]byte
	mu       sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) messages(t *testing.T) []domain.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Message, len(m.received))
	for i, raw := range m.received {
		require.NoError(t, json.Unmarshal(raw, &out[i]))
	}
	return out
}

func (m *mockConn) clear() {
	m.mu.Lock()
	m.received = nil
	m.mu.Unlock()
}

type fixture struct {
	handler *Handler
	reg     *registry.Registry
	dir     *hub.Directory
}

func newFixture() *fixture {
	reg := registry.New()
	dir := hub.NewDirectory()
	router := hub.NewRouter(dir)
	pc := presence.NewCoordinator(dir, router)
	dc := docsync.NewCoordinator(reg, dir)
	cr := chat.NewRelay(dir, router)
	return &fixture{
		handler: NewHandler(reg, dir, router, pc, dc, cr),
		reg:     reg,
		dir:     dir,
	}
}

func (f *fixture) connect(id string) *mockConn {
	conn := &mockConn{id: id}
	f.reg.Register(conn)
	return conn
}

func (f *fixture) send(t *testing.T, conn *mockConn, msg domain.Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	f.handler.Handle(conn, data)
}

func TestHandler_InvalidJSON(t *testing.T) {
	f := newFixture()
	conn := f.connect("c1")

	f.handler.Handle(conn, []byte("not json"))

	assert.Empty(t, conn.messages(t))
	rooms, _ := f.dir.Stats()
	assert.Equal(t, 0, rooms)
}

func TestHandler_UnknownType(t *testing.T) {
	f := newFixture()
	conn := f.connect("c1")

	f.send(t, conn, domain.Message{Type: "compile-code"})

	assert.Empty(t, conn.messages(t))
}

func TestHandler_PingPong(t *testing.T) {
	f := newFixture()
	conn := f.connect("c1")

	f.send(t, conn, domain.Message{Type: domain.ActionPing, Timestamp: 12345})

	got := conn.messages(t)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ActionPong, got[0].Type)
	assert.Equal(t, int64(12345), got[0].Timestamp)
	assert.Equal(t, "c1", got[0].SocketID)
}

func TestHandler_JoinReplyToJoiner(t *testing.T) {
	f := newFixture()
	alice := f.connect("a")

	f.send(t, alice, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Alice"})

	got := alice.messages(t)
	require.Len(t, got, 1, "roster reply only, no sync for the first member")
	assert.Equal(t, domain.ActionJoined, got[0].Type)
	assert.Equal(t, "Alice", got[0].Username)
	assert.Equal(t, "a", got[0].SocketID)
	assert.Equal(t, []domain.Client{{SocketID: "a", Username: "Alice"}}, got[0].Clients)
}

func TestHandler_CodeChangeFromUnjoined(t *testing.T) {
	f := newFixture()
	alice := f.connect("a")
	f.send(t, alice, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Alice"})
	code := "x"

	stranger := f.connect("s")
	f.send(t, stranger, domain.Message{Type: domain.ActionCodeChange, Code: &code})

	assert.Len(t, alice.messages(t), 1, "nothing beyond the join reply")
}

// Walks the full session from the editor client's point of view: Alice opens
// a room, Bob joins and gets synced, Alice edits and chats, then both leave.
func TestHandler_Session(t *testing.T) {
	f := newFixture()

	// Alice joins an empty room.
	alice := f.connect("a")
	f.send(t, alice, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Alice"})
	require.Len(t, alice.messages(t), 1)
	alice.clear()

	// Bob joins: Alice gets the announcement plus a sync request naming Bob.
	bob := f.connect("b")
	f.send(t, bob, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Bob"})

	bobGot := bob.messages(t)
	require.Len(t, bobGot, 1)
	assert.Equal(t, domain.ActionJoined, bobGot[0].Type)
	assert.Equal(t, []domain.Client{
		{SocketID: "a", Username: "Alice"},
		{SocketID: "b", Username: "Bob"},
	}, bobGot[0].Clients)

	aliceGot := alice.messages(t)
	require.Len(t, aliceGot, 2)
	assert.Equal(t, domain.ActionJoined, aliceGot[0].Type)
	assert.Equal(t, "Bob", aliceGot[0].Username)
	assert.Equal(t, domain.ActionSyncCode, aliceGot[1].Type)
	assert.Equal(t, "b", aliceGot[1].SocketID)
	alice.clear()
	bob.clear()

	// Alice answers the sync request; only Bob receives the snapshot.
	doc := "print(1)"
	f.send(t, alice, domain.Message{Type: domain.ActionSyncCode, SocketID: "b", Code: &doc})
	bobGot = bob.messages(t)
	require.Len(t, bobGot, 1)
	require.NotNil(t, bobGot[0].Code)
	assert.Equal(t, "print(1)", *bobGot[0].Code)
	assert.Empty(t, alice.messages(t))
	bob.clear()

	// Alice edits; Bob alone receives the new document.
	edit := "print(2)"
	f.send(t, alice, domain.Message{Type: domain.ActionCodeChange, Code: &edit})
	bobGot = bob.messages(t)
	require.Len(t, bobGot, 1)
	assert.Equal(t, domain.ActionCodeChange, bobGot[0].Type)
	assert.Equal(t, "print(2)", *bobGot[0].Code)
	bob.clear()

	// Alice chats.
	f.send(t, alice, domain.Message{Type: domain.ActionSendMessage, Text: "done!"})
	bobGot = bob.messages(t)
	require.Len(t, bobGot, 1)
	assert.Equal(t, "> Alice:\ndone!\n", bobGot[0].Text)
	bob.clear()

	// Alice disconnects; Bob learns who left.
	f.handler.Disconnect(alice)
	bobGot = bob.messages(t)
	require.Len(t, bobGot, 1)
	assert.Equal(t, domain.ActionDisconnected, bobGot[0].Type)
	assert.Equal(t, "a", bobGot[0].SocketID)
	assert.Equal(t, "Alice", bobGot[0].Username)
	assert.Equal(t, []domain.Client{{SocketID: "b", Username: "Bob"}}, f.dir.MembersOf("r1"))
	_, ok := f.reg.Lookup("a")
	assert.False(t, ok)

	// Bob leaves too; the room is gone.
	f.handler.Disconnect(bob)
	rooms, members := f.dir.Stats()
	assert.Equal(t, 0, rooms)
	assert.Equal(t, 0, members)
}

func TestHandler_ExplicitLeaveThenClose(t *testing.T) {
	f := newFixture()
	alice := f.connect("a")
	bob := f.connect("b")
	f.send(t, alice, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Alice"})
	f.send(t, bob, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Bob"})
	bob.clear()

	f.send(t, alice, domain.Message{Type: domain.ActionLeave})
	f.handler.Disconnect(alice)

	got := bob.messages(t)
	require.Len(t, got, 1, "leave frame and transport close announce once")
	assert.Equal(t, domain.ActionDisconnected, got[0].Type)
}

func TestHandler_JoinAfterLeaveRefused(t *testing.T) {
	f := newFixture()
	alice := f.connect("a")
	f.send(t, alice, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Alice"})
	f.send(t, alice, domain.Message{Type: domain.ActionLeave})
	alice.clear()

	f.send(t, alice, domain.Message{Type: domain.ActionJoin, RoomID: "r1", Username: "Alice"})

	assert.Empty(t, alice.messages(t))
	rooms, _ := f.dir.Stats()
	assert.Equal(t, 0, rooms)
}
