package protocol

import (
	"encoding/json"
	"log/slog"

	"github.com/JerinDevasia/CodeLab/chat"
	"github.com/JerinDevasia/CodeLab/docsync"
	"github.com/JerinDevasia/CodeLab/domain"
	"github.com/JerinDevasia/CodeLab/hub"
	"github.com/JerinDevasia/CodeLab/presence"
	"github.com/JerinDevasia/CodeLab/registry"
)

// Handler decodes inbound frames and drives the room protocol.
type Handler struct {
	reg      *registry.Registry
	dir      *hub.Directory
	router   *hub.Router
	presence *presence.Coordinator
	docs     *docsync.Coordinator
	chat     *chat.Relay
}

func NewHandler(reg *registry.Registry, dir *hub.Directory, router *hub.Router,
	pc *presence.Coordinator, dc *docsync.Coordinator, cr *chat.Relay) *Handler {
	return &Handler{
		reg:      reg,
		dir:      dir,
		router:   router,
		presence: pc,
		docs:     dc,
		chat:     cr,
	}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch msg.Type {
	case domain.ActionJoin:
		h.handleJoin(conn, msg)
	case domain.ActionSyncCode:
		// Snapshot from the nominated member on its way to a new joiner.
		if msg.Code != nil && msg.SocketID != "" {
			h.docs.Relay(msg.SocketID, *msg.Code)
		}
	case domain.ActionCodeChange:
		h.handleCodeChange(conn, msg)
	case domain.ActionSendMessage:
		h.chat.Send(conn, msg.Text)
	case domain.ActionLeave:
		h.presence.Leave(conn)
	case domain.ActionPing:
		pong := domain.Message{Type: domain.ActionPong, Timestamp: msg.Timestamp, SocketID: conn.ID()}
		if resp, err := json.Marshal(pong); err == nil {
			conn.Send(resp)
		}
	default:
		slog.Warn("unknown message type", "clientId", conn.ID(), "type", msg.Type)
	}
}

func (h *Handler) handleJoin(conn domain.Connection, msg domain.Message) {
	roster, ok := h.presence.Join(conn, msg.RoomID, msg.Username)
	if !ok {
		return
	}

	// The joiner gets the roster as the direct reply, never as a broadcast.
	_, username, _ := h.dir.Member(conn.ID())
	reply, err := json.Marshal(domain.Message{
		Type:     domain.ActionJoined,
		Clients:  roster,
		Username: username,
		SocketID: conn.ID(),
	})
	if err == nil {
		if err := conn.Send(reply); err != nil {
			slog.Warn("join reply send failed", "clientId", conn.ID(), "error", err)
		}
	}

	h.docs.RequestSync(msg.RoomID, conn.ID())
}

func (h *Handler) handleCodeChange(conn domain.Connection, msg domain.Message) {
	roomID, _, ok := h.dir.Member(conn.ID())
	if !ok {
		return
	}
	payload, err := json.Marshal(domain.Message{
		Type: domain.ActionCodeChange,
		Code: msg.Code,
	})
	if err != nil {
		return
	}
	h.router.Broadcast(roomID, conn.ID(), payload)
}

// Disconnect is the transport teardown hook: run the leave transition once,
// then forget the connection entirely.
func (h *Handler) Disconnect(conn domain.Connection) {
	h.presence.Leave(conn)
	h.presence.Release(conn.ID())
	h.reg.Unregister(conn.ID())
}
