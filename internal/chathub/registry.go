package chathub

import "boting/backend/internal/models"

type registryEntry struct {
	identity    models.Identity
	hasIdentity bool
	roomID      string
}

// Registry maps each live connection to its claimed identity and current room.
// Lookups of unknown connections are silent no-ops.
type Registry struct {
	entries map[string]*registryEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Touch records a connection that has not registered an identity yet.
func (r *Registry) Touch(connID string) {
	if _, ok := r.entries[connID]; !ok {
		r.entries[connID] = &registryEntry{}
	}
}

// Register attaches identity to connID. Re-registration overwrites the
// previous identity field by field; empty fields keep their old value.
func (r *Registry) Register(connID string, identity models.Identity) {
	e, ok := r.entries[connID]
	if !ok {
		e = &registryEntry{}
		r.entries[connID] = e
	}
	if e.hasIdentity {
		e.identity = e.identity.Merge(identity)
	} else {
		e.identity = identity
		e.hasIdentity = true
	}
}

// Lookup returns the identity of connID, if it registered one.
func (r *Registry) Lookup(connID string) (models.Identity, bool) {
	e, ok := r.entries[connID]
	if !ok || !e.hasIdentity {
		return models.Identity{}, false
	}
	return e.identity, true
}

// Identity is Lookup for callers that need an error: it returns
// models.ErrMissingIdentity when connID never registered one.
func (r *Registry) Identity(connID string) (models.Identity, error) {
	id, ok := r.Lookup(connID)
	if !ok {
		return models.Identity{}, models.ErrMissingIdentity
	}
	return id, nil
}

// SetRoom records the current room of connID. An empty roomID clears it.
func (r *Registry) SetRoom(connID, roomID string) {
	if e, ok := r.entries[connID]; ok {
		e.roomID = roomID
	}
}

// RoomOf returns the current room of connID.
func (r *Registry) RoomOf(connID string) (string, bool) {
	e, ok := r.entries[connID]
	if !ok || e.roomID == "" {
		return "", false
	}
	return e.roomID, true
}

// Known reports whether connID has an entry.
func (r *Registry) Known(connID string) bool {
	_, ok := r.entries[connID]
	return ok
}

// Remove drops connID entirely.
func (r *Registry) Remove(connID string) {
	delete(r.entries, connID)
}

// Len returns the number of tracked connections.
func (r *Registry) Len() int {
	return len(r.entries)
}
