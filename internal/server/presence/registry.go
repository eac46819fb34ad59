// Package presence tracks which users currently hold a live real-time connection.
package presence

import (
	"sort"
	"sync"

	"github.com/iudanet/gophchat/internal/models"
)

// Handle is a live connection that can receive pushed events.
// Push must not block; implementations are compared by identity,
// so they should be pointer types.
type Handle interface {
	Push(evt models.Event) error
}

// Registry maps a user id to its single active handle.
// Policy is last-connect-wins: a newer Connect replaces the older handle
// without closing it. Each method is atomic on its own; callers doing
// Lookup followed by Push must tolerate a handle that went stale in between.
type Registry struct {
	sessions map[string]Handle
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Handle),
	}
}

// Connect registers handle as the active connection of userID and returns
// the handle it superseded, or nil.
func (r *Registry) Connect(userID string, handle Handle) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[userID]
	r.sessions[userID] = handle
	return prev
}

// Disconnect removes the entry of userID only if handle is still the
// registered one. A late disconnect from a superseded connection is a no-op.
func (r *Registry) Disconnect(userID string, handle Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != handle {
		return false
	}
	delete(r.sessions, userID)
	return true
}

// Lookup returns the live handle of userID.
func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.sessions[userID]
	return h, ok
}

// Online returns a sorted snapshot of connected user ids.
func (r *Registry) Online() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Count returns the number of connected users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
