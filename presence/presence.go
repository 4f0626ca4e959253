package presence

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/JerinDevasia/CodeLab/domain"
	"github.com/JerinDevasia/CodeLab/hub"
)

// DefaultUsername stands in when a participant joins without a display name.
// The client never validates the field, so neither do we.
const DefaultUsername = "anonymous"

type connState int

const (
	stateUnassigned connState = iota
	stateJoined
	stateLeft
)

// Coordinator runs the per-connection membership lifecycle:
// unassigned -> joined -> left, with left terminal for the life of the
// connection.
type Coordinator struct {
	dir    *hub.Directory
	router *hub.Router

	mu     sync.Mutex
	states map[string]connState
}

func NewCoordinator(dir *hub.Directory, router *hub.Router) *Coordinator {
	return &Coordinator{
		dir:    dir,
		router: router,
		states: make(map[string]connState),
	}
}

// Join admits the connection into the room and announces it to the existing
// members. The returned roster is the caller's to send back to the joiner as
// the direct join reply; the joiner is not a recipient of the announcement.
// ok is false when the connection is already joined or already left.
func (c *Coordinator) Join(conn domain.Connection, roomID, username string) ([]domain.Client, bool) {
	if username == "" {
		username = DefaultUsername
	}

	c.mu.Lock()
	switch c.states[conn.ID()] {
	case stateJoined:
		c.mu.Unlock()
		slog.Warn("join ignored, already joined", "clientId", conn.ID(), "room", roomID)
		return nil, false
	case stateLeft:
		c.mu.Unlock()
		slog.Warn("join ignored, connection already left", "clientId", conn.ID(), "room", roomID)
		return nil, false
	}
	c.states[conn.ID()] = stateJoined
	c.mu.Unlock()

	roster := c.dir.AddMember(roomID, conn, username)

	announce, err := json.Marshal(domain.Message{
		Type:     domain.ActionJoined,
		Clients:  roster,
		Username: username,
		SocketID: conn.ID(),
	})
	if err == nil {
		c.router.Broadcast(roomID, conn.ID(), announce)
	}
	return roster, true
}

// Leave runs the joined -> left transition exactly once, whether it arrives
// as an explicit leave frame or a transport close. Survivors are told who
// left. Calls for never-joined or already-left connections are no-ops.
func (c *Coordinator) Leave(conn domain.Connection) bool {
	c.mu.Lock()
	if c.states[conn.ID()] != stateJoined {
		c.mu.Unlock()
		return false
	}
	c.states[conn.ID()] = stateLeft
	c.mu.Unlock()

	_, username, ok := c.dir.Member(conn.ID())
	if !ok {
		return true
	}
	roomID, remaining, _ := c.dir.RemoveMember(conn.ID())
	if len(remaining) > 0 {
		notice, err := json.Marshal(domain.Message{
			Type:     domain.ActionDisconnected,
			SocketID: conn.ID(),
			Username: username,
		})
		if err == nil {
			c.router.Broadcast(roomID, conn.ID(), notice)
		}
	}
	return true
}

// Release forgets the connection's lifecycle state. Call only once the
// transport is gone; until then the terminal left state must keep a re-join
// on the same connection refused.
func (c *Coordinator) Release(connID string) {
	c.mu.Lock()
	delete(c.states, connID)
	c.mu.Unlock()
}
