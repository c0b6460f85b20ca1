package ws

import "sync"

// Registry is the process-wide mapping from session group key to the live
// connections in that group. Add and remove are atomic with respect to
// concurrent connects and disconnects on the same key.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]map[*Connection]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{groups: make(map[string]map[*Connection]struct{})}
}

// Add registers a connection under key.
func (r *Registry) Add(key string, c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[key]
	if !ok {
		group = make(map[*Connection]struct{})
		r.groups[key] = group
	}
	group[c] = struct{}{}
}

// Remove unregisters a connection, dropping the group once empty.
func (r *Registry) Remove(key string, c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[key]
	if !ok {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(r.groups, key)
	}
}

// Count reports how many connections share a group key.
func (r *Registry) Count(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groups[key])
}

// Broadcast sends a frame to every connection in the group.
func (r *Registry) Broadcast(key string, v any) {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.groups[key]))
	for c := range r.groups[key] {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		c.send(v)
	}
}
