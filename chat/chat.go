package chat

import (
	"encoding/json"
	"fmt"

	"github.com/JerinDevasia/CodeLab/domain"
	"github.com/JerinDevasia/CodeLab/hub"
)

// Relay fans chat lines out to a room. No history is kept; a late joiner
// never sees earlier chat.
type Relay struct {
	dir    *hub.Directory
	router *hub.Router
}

func NewRelay(dir *hub.Directory, router *hub.Router) *Relay {
	return &Relay{dir: dir, router: router}
}

// Send formats the chat line attributed to the origin's display name and
// broadcasts it to the rest of the origin's room. A connection in no room is
// a no-op.
func (r *Relay) Send(origin domain.Connection, text string) {
	roomID, username, ok := r.dir.Member(origin.ID())
	if !ok {
		return
	}

	payload, err := json.Marshal(domain.Message{
		Type: domain.ActionSendMessage,
		Text: fmt.Sprintf("> %s:\n%s\n", username, text),
	})
	if err != nil {
		return
	}
	r.router.Broadcast(roomID, origin.ID(), payload)
}
