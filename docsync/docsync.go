package docsync

import (
	"encoding/json"
	"log/slog"

	"github.com/JerinDevasia/CodeLab/domain"
	"github.com/JerinDevasia/CodeLab/hub"
	"github.com/JerinDevasia/CodeLab/registry"
)

// Coordinator arranges sync-on-join: the server holds no document content, so
// a new joiner gets the current text from an existing member. Exactly one
// member is nominated per join, so a joiner never sees competing snapshots.
type Coordinator struct {
	reg *registry.Registry
	dir *hub.Directory
}

func NewCoordinator(reg *registry.Registry, dir *hub.Directory) *Coordinator {
	return &Coordinator{reg: reg, dir: dir}
}

// RequestSync asks the oldest member of the room other than the joiner to
// send its document to the joiner. A joiner alone in its room gets nothing
// and starts with an empty document.
func (c *Coordinator) RequestSync(roomID, joinerID string) {
	var source domain.Client
	found := false
	for _, m := range c.dir.MembersOf(roomID) {
		if m.SocketID != joinerID {
			source = m
			found = true
			break
		}
	}
	if !found {
		return
	}

	conn, ok := c.reg.Lookup(source.SocketID)
	if !ok {
		slog.Warn("sync source gone before request", "room", roomID, "clientId", source.SocketID)
		return
	}

	req, err := json.Marshal(domain.Message{
		Type:     domain.ActionSyncCode,
		SocketID: joinerID,
	})
	if err != nil {
		return
	}
	if err := conn.Send(req); err != nil {
		slog.Warn("sync request send failed", "room", roomID, "clientId", source.SocketID, "error", err)
		return
	}
	slog.Debug("sync requested", "room", roomID, "source", source.SocketID, "target", joinerID)
}

// Relay delivers a document snapshot point-to-point to the target connection.
// A target that disconnected in the meantime is a no-op.
func (c *Coordinator) Relay(targetID, code string) {
	conn, ok := c.reg.Lookup(targetID)
	if !ok {
		slog.Debug("sync target gone", "clientId", targetID)
		return
	}

	payload, err := json.Marshal(domain.Message{
		Type: domain.ActionSyncCode,
		Code: &code,
	})
	if err != nil {
		return
	}
	if err := conn.Send(payload); err != nil {
		slog.Warn("sync relay send failed", "clientId", targetID, "error", err)
	}
}
