package registry

import (
	"log/slog"
	"sync"

	"github.com/JerinDevasia/CodeLab/domain"
)

// Registry tracks every live connection by id, joined to a room or not.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]domain.Connection
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]domain.Connection),
	}
}

func (r *Registry) Register(conn domain.Connection) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	count := len(r.conns)
	r.mu.Unlock()

	slog.Info("connection registered", "clientId", conn.ID(), "connections", count)
}

// Unregister drops the connection with the given id. Unknown ids are a no-op
// so a transport close racing an explicit leave stays harmless.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	_, known := r.conns[id]
	delete(r.conns, id)
	count := len(r.conns)
	r.mu.Unlock()

	if known {
		slog.Info("connection unregistered", "clientId", id, "connections", count)
	}
}

func (r *Registry) Lookup(id string) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
