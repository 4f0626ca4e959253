package domain

// Action values are the wire event names shared with the editor client.
const (
	ActionJoin         = "join"
	ActionJoined       = "joined"
	ActionDisconnected = "disconnected"
	ActionCodeChange   = "code-change"
	ActionSyncCode     = "sync-code"
	ActionLeave        = "leave"
	ActionSendMessage  = "send-message"
	ActionPing         = "ping"
	ActionPong         = "pong"
)

// Message is the JSON envelope for every frame in both directions. Fields are
// populated per action; absent fields are omitted on the wire. Code is a
// pointer so an empty document survives the round trip.
type Message struct {
	Type      string   `json:"type"`
	RoomID    string   `json:"roomId,omitempty"`
	Username  string   `json:"username,omitempty"`
	SocketID  string   `json:"socketId,omitempty"`
	Code      *string  `json:"code,omitempty"`
	Text      string   `json:"message,omitempty"`
	Clients   []Client `json:"clients,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// Client is one roster entry as reported to participants.
type Client struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
}

// Connection is one live transport channel to one participant. A connection
// has no room until the participant joins one.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// MessageHandler consumes raw inbound frames from a connection.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
	Disconnect(conn Connection)
}
