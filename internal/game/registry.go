package game

import (
	"sync"
)

type userKey struct {
	owner int64
	kind  string
}

// Registry is the concurrent store that owns session membership. Channel
// sessions are keyed by chat id, user sessions by (owner id, game kind).
// A session exists in the system if and only if it is in the registry or
// is being constructed or persisted; all mutation goes through these
// methods so the membership invariant is enforced in one place.
type Registry struct {
	mu      sync.RWMutex
	channel map[int64]ChannelSession
	user    map[userKey]UserSession
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		channel: make(map[int64]ChannelSession),
		user:    make(map[userKey]UserSession),
	}
}

// Add inserts a session under its natural key. It is a no-op returning
// false when the key is already occupied; callers needing replace
// semantics must check first.
func (r *Registry) Add(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch g := s.(type) {
	case UserSession:
		k := userKey{owner: g.OwnerID(), kind: g.Kind()}
		if _, ok := r.user[k]; ok {
			return false
		}
		r.user[k] = g
		return true
	case ChannelSession:
		if _, ok := r.channel[g.ChannelID()]; ok {
			return false
		}
		r.channel[g.ChannelID()] = g
		return true
	default:
		return false
	}
}

// ChannelSession returns the live session for a chat, if any.
func (r *Registry) ChannelSession(chatID int64) (ChannelSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.channel[chatID]
	return s, ok
}

// UserSession returns the live session of the given kind owned by a
// user, if any.
func (r *Registry) UserSession(ownerID int64, kind string) (UserSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.user[userKey{owner: ownerID, kind: kind}]
	return s, ok
}

// Remove deletes a session by its natural key and reports whether
// anything was removed.
func (r *Registry) Remove(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch g := s.(type) {
	case UserSession:
		k := userKey{owner: g.OwnerID(), kind: g.Kind()}
		if _, ok := r.user[k]; !ok {
			return false
		}
		delete(r.user, k)
		return true
	case ChannelSession:
		if _, ok := r.channel[g.ChannelID()]; !ok {
			return false
		}
		delete(r.channel, g.ChannelID())
		return true
	default:
		return false
	}
}

// ChannelSessions returns a snapshot of all live channel sessions. The
// slice is a copy; it is consistent at the time of the call but not
// linearizable with concurrent mutation.
func (r *Registry) ChannelSessions() []ChannelSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ChannelSession, 0, len(r.channel))
	for _, s := range r.channel {
		out = append(out, s)
	}
	return out
}

// UserSessions returns a snapshot of all live user sessions.
func (r *Registry) UserSessions() []UserSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]UserSession, 0, len(r.user))
	for _, s := range r.user {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions of both scopes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channel) + len(r.user)
}
