package blanks

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options configures the engine. Zero values fall back to the defaults
// noted per field.
type Options struct {
	// GraceWindow is how long a disconnected player's seat is held open
	// before the identity is reclaimed. Default 30s.
	GraceWindow time.Duration

	// RoomTimeout reaps rooms idle for longer than this. Zero disables
	// the reaper.
	RoomTimeout time.Duration

	// Logf receives engine log lines; nil discards them.
	Logf func(format string, args ...any)

	// NewDeck supplies the card deck for each new room. Default: the
	// built-in card set.
	NewDeck func() Deck

	// Tick overrides the countdown resolution. Tests only.
	Tick time.Duration
}

func (o Options) grace() time.Duration {
	if o.GraceWindow <= 0 {
		return 30 * time.Second
	}
	return o.GraceWindow
}

func (o Options) logf() func(string, ...any) {
	if o.Logf == nil {
		return func(string, ...any) {}
	}
	return o.Logf
}

func (o Options) newDeck() Deck {
	if o.NewDeck == nil {
		return NewDeck()
	}
	return o.NewDeck()
}

func (o Options) tickInterval() time.Duration {
	if o.Tick <= 0 {
		return time.Second
	}
	return o.Tick
}

// Registry is the room directory: create, look up, list, and reap. Its
// index has its own lock, independent of any single room's.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	opts     Options
	sessions *SessionManager
}

func newRegistry(opts Options, sessions *SessionManager) *Registry {
	reg := &Registry{
		rooms:    make(map[string]*Room),
		opts:     opts,
		sessions: sessions,
	}
	if opts.RoomTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// Create makes a new room owned by the caller and seats them in it.
func (reg *Registry) Create(owner, roomName string, public bool, password string, c conn) (*Room, error) {
	room := newRoom(uuid.NewString(), owner, public, password, reg)
	if name, err := validateName(roomName); err == nil {
		room.settings.GameName = name
	}

	if err := room.join(owner, password, false, c); err != nil {
		return nil, err
	}

	reg.mu.Lock()
	reg.rooms[room.id] = room
	reg.mu.Unlock()

	reg.opts.logf()("BLANKS: room %s (%q) created by %q", room.id, room.settings.GameName, owner)
	reg.publicGamesChanged()
	return room, nil
}

// Get looks a room up by id.
func (reg *Registry) Get(id string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Join seats a player (or spectator) in an existing room.
func (reg *Registry) Join(name, roomID, password string, spectator bool, c conn) (*Room, error) {
	room, err := reg.Get(roomID)
	if err != nil {
		return nil, err
	}
	if err := room.join(name, password, spectator, c); err != nil {
		return nil, err
	}
	reg.publicGamesChanged()
	return room, nil
}

// List returns the publicly visible rooms, optionally filtered by a
// case-insensitive name substring.
func (reg *Registry) List(filter string) []RoomSummary {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()

	filter = strings.ToLower(strings.TrimSpace(filter))
	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summary, visible := room.Summary()
		if !visible {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(summary.Name), filter) {
			continue
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Remove drops a room from the index and disconnects whoever is left in
// it.
func (reg *Registry) Remove(id string) {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	delete(reg.rooms, id)
	reg.mu.Unlock()

	if ok {
		reg.opts.logf()("BLANKS: room %s removed", id)
		room.Close()
	}
}

// publicGamesChanged pushes the refreshed public listing to every live
// session. Never called with a room lock held.
func (reg *Registry) publicGamesChanged() {
	msg := PublicGamesMessage{Type: "public_games_list", Games: reg.List("")}
	for _, c := range reg.sessions.connections() {
		c.enqueue(msg)
	}
}

// reaperLoop periodically removes rooms idle longer than RoomTimeout.
func (reg *Registry) reaperLoop() {
	ticker := time.NewTicker(reg.opts.RoomTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.opts.RoomTimeout)

		reg.mu.Lock()
		stale := make([]string, 0)
		for id, room := range reg.rooms {
			if room.LastActive().Before(cutoff) {
				stale = append(stale, id)
			}
		}
		reg.mu.Unlock()

		for _, id := range stale {
			reg.opts.logf()("BLANKS: reaping idle room %s", id)
			reg.Remove(id)
		}
	}
}
