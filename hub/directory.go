package hub

import (
	"log/slog"
	"sync"

	"github.com/JerinDevasia/CodeLab/domain"
)

type member struct {
	conn     domain.Connection
	username string
}

type room struct {
	// sendMu serializes delivery per room so broadcasts arrive in call order.
	sendMu  sync.Mutex
	members []member // ordered by join time
}

func (r *room) indexOf(connID string) int {
	for i, m := range r.members {
		if m.conn.ID() == connID {
			return i
		}
	}
	return -1
}

// Directory maps room ids to their ordered member lists. Rooms exist exactly
// while they have members: created on first add, pruned on last remove.
type Directory struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	byConn map[string]string // connection id -> room id
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:  make(map[string]*room),
		byConn: make(map[string]string),
	}
}

// AddMember puts the connection into the room and returns the resulting
// roster. A second add from the same connection replaces its entry in place,
// keeping the original join position.
func (d *Directory) AddMember(roomID string, conn domain.Connection, username string) []domain.Client {
	d.mu.Lock()
	r, exists := d.rooms[roomID]
	if !exists {
		r = &room{}
		d.rooms[roomID] = r
	}
	if i := r.indexOf(conn.ID()); i >= 0 {
		r.members[i] = member{conn: conn, username: username}
	} else {
		r.members = append(r.members, member{conn: conn, username: username})
	}
	d.byConn[conn.ID()] = roomID
	roster := clientsOf(r)
	count := len(r.members)
	d.mu.Unlock()

	slog.Info("member added", "room", roomID, "clientId", conn.ID(), "username", username, "members", count)
	return roster
}

// RemoveMember takes the connection out of whatever room it is in and returns
// that room's id and remaining roster. ok is false when the connection was in
// no room. An emptied room is deleted.
func (d *Directory) RemoveMember(connID string) (string, []domain.Client, bool) {
	d.mu.Lock()
	roomID, ok := d.byConn[connID]
	if !ok {
		d.mu.Unlock()
		return "", nil, false
	}
	delete(d.byConn, connID)

	r := d.rooms[roomID]
	if i := r.indexOf(connID); i >= 0 {
		r.members = append(r.members[:i], r.members[i+1:]...)
	}
	remaining := clientsOf(r)
	empty := len(r.members) == 0
	if empty {
		delete(d.rooms, roomID)
	}
	d.mu.Unlock()

	slog.Info("member removed", "room", roomID, "clientId", connID, "members", len(remaining))
	if empty {
		slog.Info("room removed", "room", roomID)
	}
	return roomID, remaining, true
}

// MembersOf returns a snapshot of the room's roster in join order.
func (d *Directory) MembersOf(roomID string) []domain.Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, exists := d.rooms[roomID]
	if !exists {
		return nil
	}
	return clientsOf(r)
}

// Member reports the room and display name bound to a connection.
func (d *Directory) Member(connID string) (roomID, username string, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	roomID, ok = d.byConn[connID]
	if !ok {
		return "", "", false
	}
	r := d.rooms[roomID]
	i := r.indexOf(connID)
	return roomID, r.members[i].username, true
}

func (d *Directory) Stats() (rooms, members int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rooms = len(d.rooms)
	for _, r := range d.rooms {
		members += len(r.members)
	}
	return rooms, members
}

func clientsOf(r *room) []domain.Client {
	clients := make([]domain.Client, len(r.members))
	for i, m := range r.members {
		clients[i] = domain.Client{SocketID: m.conn.ID(), Username: m.username}
	}
	return clients
}
