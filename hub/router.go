package hub

import (
	"log/slog"
)

// Router fans a payload out to every member of a room except its origin.
type Router struct {
	dir *Directory
}

func NewRouter(dir *Directory) *Router {
	return &Router{dir: dir}
}

// Broadcast delivers payload to all members of roomID other than originID.
// The room's send mutex is taken before the roster snapshot, so sequential
// calls for one room reach every recipient in call order. A failed send is
// logged and skipped; remaining recipients still get the payload.
func (rt *Router) Broadcast(roomID, originID string, payload []byte) {
	rt.dir.mu.RLock()
	r, exists := rt.dir.rooms[roomID]
	rt.dir.mu.RUnlock()
	if !exists {
		return
	}

	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	rt.dir.mu.RLock()
	recipients := make([]member, len(r.members))
	copy(recipients, r.members)
	rt.dir.mu.RUnlock()

	for _, m := range recipients {
		if m.conn.ID() == originID {
			continue
		}
		if err := m.conn.Send(payload); err != nil {
			slog.Warn("send failed", "room", roomID, "clientId", m.conn.ID(), "error", err)
		}
	}
}
