package blanks

import (
	"sync"
	"time"
)

// session binds a display name to a live transport and, optionally, the
// room the name currently occupies.
type session struct {
	name   string
	status ConnStatus
	c      conn
	room   *Room

	// gen invalidates a pending grace expiry when the session
	// reconnects (or detaches again) before it fires.
	gen int
}

// SessionManager owns the identity layer: who is attached, who is inside
// the reconnect grace window, and which room holds their seat. A name's
// fate (reconnected vs expired) is decided atomically under mu; the room
// side of either outcome then runs under the room's own lock.
type SessionManager struct {
	mu       sync.Mutex
	grace    time.Duration
	logf     func(format string, args ...any)
	sessions map[string]*session
}

func newSessionManager(grace time.Duration, logf func(string, ...any)) *SessionManager {
	return &SessionManager{
		grace:    grace,
		logf:     logf,
		sessions: make(map[string]*session),
	}
}

// Attach claims a display name for a fresh connection. Names held by any
// live session, including one inside its grace window, are taken.
func (sm *SessionManager) Attach(name string, c conn) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.sessions[name]; ok {
		return ErrNameTaken
	}
	sm.sessions[name] = &session{name: name, status: StatusConnected, c: c}
	sm.logf("BLANKS: session %q attached", name)
	return nil
}

// Detach marks the connection's identity as disconnecting and arms the
// grace window. The seat in the room survives until the window expires.
// A stale pump whose session already moved to a newer connection is
// ignored.
func (sm *SessionManager) Detach(name string, from conn) {
	sm.mu.Lock()
	s, ok := sm.sessions[name]
	if !ok || s.status != StatusConnected || s.c != from {
		sm.mu.Unlock()
		return
	}
	s.status = StatusDisconnecting
	s.c = nil
	s.gen++
	gen := s.gen
	room := s.room
	sm.mu.Unlock()

	if room != nil {
		room.MarkStatus(name, StatusDisconnecting)
	}
	go sm.expireAfterGrace(name, gen)
}

// expireAfterGrace waits out the grace window and, if the session never
// came back, reclaims the identity and the room seat.
func (sm *SessionManager) expireAfterGrace(name string, gen int) {
	time.Sleep(sm.grace)

	sm.mu.Lock()
	s, ok := sm.sessions[name]
	if !ok || s.gen != gen || s.status != StatusDisconnecting {
		sm.mu.Unlock()
		return
	}
	s.status = StatusLeft
	delete(sm.sessions, name)
	room := s.room
	sm.mu.Unlock()

	sm.logf("BLANKS: session %q expired after grace window", name)
	if room != nil {
		room.RemoveExpired(name)
	}
}

// Reconnect resumes a session inside its grace window on a new
// connection. Returns the room holding the seat, if any. A name that was
// already reclaimed gets ErrSessionExpired; a name that is still live on
// another connection gets ErrNameTaken.
func (sm *SessionManager) Reconnect(name string, c conn) (*Room, error) {
	sm.mu.Lock()
	s, ok := sm.sessions[name]
	if !ok {
		sm.mu.Unlock()
		return nil, ErrSessionExpired
	}
	if s.status == StatusConnected {
		sm.mu.Unlock()
		return nil, ErrNameTaken
	}
	s.status = StatusConnected
	s.c = c
	s.gen++
	room := s.room
	sm.mu.Unlock()

	sm.logf("BLANKS: session %q reconnected", name)
	return room, nil
}

// Release drops a session outright: a clean connection close skips the
// grace window entirely. A stale pump whose session already moved to a
// newer connection is ignored, same rule as Detach.
func (sm *SessionManager) Release(name string, from conn) {
	sm.mu.Lock()
	s, ok := sm.sessions[name]
	if !ok || s.c != from {
		sm.mu.Unlock()
		return
	}
	s.gen++
	delete(sm.sessions, name)
	room := s.room
	sm.mu.Unlock()

	if room != nil {
		room.Leave(name)
	}
}

// SetRoom records which room holds the session's seat.
func (sm *SessionManager) SetRoom(name string, room *Room) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[name]; ok {
		s.room = room
	}
}

// Room returns the room the session currently sits in, if any.
func (sm *SessionManager) Room(name string) *Room {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[name]; ok {
		return s.room
	}
	return nil
}

// connections snapshots every live attachment, for lobby-wide pushes.
func (sm *SessionManager) connections() []conn {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]conn, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		if s.status == StatusConnected && s.c != nil {
			out = append(out, s.c)
		}
	}
	return out
}
