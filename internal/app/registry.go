package app

import (
	"sync"

	"github.com/rs/zerolog"
)

// Identity names one logical participant of a session. A zero PlayerID
// tags the host connection; this replaces string-prefixed room names with
// a comparable key.
type Identity struct {
	Pin      string
	PlayerID string
}

func HostIdentity(pin string) Identity {
	return Identity{Pin: pin}
}

func PlayerIdentity(pin, playerID string) Identity {
	return Identity{Pin: pin, PlayerID: playerID}
}

// IsHost reports whether the identity tags the session host.
func (id Identity) IsHost() bool {
	return id.PlayerID == ""
}

// Conn is a live transport connection capable of receiving pushed events.
// Send must not block; implementations drop and report when the peer
// cannot keep up.
type Conn interface {
	Send(Event) error
}

// ConnectionRegistry maps identities to live connections for push
// delivery. It is purely a routing table: a disconnect removes the mapping
// while the player's session record survives, so a reconnect with the same
// identity resumes with the score intact.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]map[Identity]Conn
	log   zerolog.Logger
}

func NewConnectionRegistry(log zerolog.Logger) *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]map[Identity]Conn),
		log:   log,
	}
}

// Register binds an identity to a connection, replacing any previous
// binding (reconnect).
func (r *ConnectionRegistry) Register(id Identity, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.conns[id.Pin]
	if !ok {
		byID = make(map[Identity]Conn)
		r.conns[id.Pin] = byID
	}
	byID[id] = conn
}

// Unregister drops the identity's connection mapping if present.
func (r *ConnectionRegistry) Unregister(id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.conns[id.Pin]
	if !ok {
		return
	}
	delete(byID, id)
	if len(byID) == 0 {
		delete(r.conns, id.Pin)
	}
}

// RouteTo delivers an event to a single identity. Delivery failures are
// logged, never retried; a missing or slow recipient must not stall the
// game.
func (r *ConnectionRegistry) RouteTo(id Identity, ev Event) {
	r.mu.RLock()
	conn := r.conns[id.Pin][id]
	r.mu.RUnlock()
	if conn == nil {
		return
	}
	if err := conn.Send(ev); err != nil {
		r.log.Warn().Err(err).Str("pin", id.Pin).Str("player", id.PlayerID).Str("event", ev.Type).Msg("event delivery failed")
	}
}

// Broadcast delivers an event to every connection registered for a pin.
func (r *ConnectionRegistry) Broadcast(pin string, ev Event) {
	r.mu.RLock()
	conns := make([]Conn, 0, len(r.conns[pin]))
	ids := make([]Identity, 0, len(r.conns[pin]))
	for id, conn := range r.conns[pin] {
		conns = append(conns, conn)
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for i, conn := range conns {
		if err := conn.Send(ev); err != nil {
			r.log.Warn().Err(err).Str("pin", pin).Str("player", ids[i].PlayerID).Str("event", ev.Type).Msg("event delivery failed")
		}
	}
}

// Connected reports how many connections a session currently has.
func (r *ConnectionRegistry) Connected(pin string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[pin])
}
