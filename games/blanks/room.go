// Blanks is a fill-in-the-blank party card game.
//
// Each round, one player is the card czar and everyone else fills the
// blanks of a black prompt card from their hand of white answer cards.
// Submissions are shown to the czar in a shuffled, anonymized order; the
// czar picks a winner, the winner scores a point, and the czar seat
// rotates. First to the configured score (or the round cap) wins.
//
// Features:
//   - Rooms created and joined over a single WebSocket endpoint
//   - Public room listing with name filtering, optional room passwords
//   - Owner-managed settings, kicks, role changes, pause/resume
//   - Disconnected players keep their seat for a grace window and can
//     reconnect into the running round with full state restored
//   - Server-authoritative phase timers with 1-second tick broadcasts
//   - Idle rooms auto-reaped after a configurable timeout
package blanks

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Phase is the room's position in the round lifecycle.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseAnswering Phase = "answering"
	PhaseVoting    Phase = "voting"
	PhaseCountdown Phase = "countdown"
	PhaseEnded     Phase = "ended"
)

// conn is the transport attachment a room broadcasts through. enqueue
// reports false when the peer can no longer keep up.
type conn interface {
	enqueue(msg any) bool
	kill()
}

// Room is one independent game session. All mutation happens under mu;
// helpers with the Locked suffix assume it is held.
type Room struct {
	id       string
	mu       sync.Mutex
	logf     func(format string, args ...any)
	deck     Deck
	registry *Registry

	settings Settings
	owner    string
	players  []*Player // join order
	banned   map[string]bool
	conns    map[string]conn

	phase    Phase
	roundNum int
	round    *Round
	czarPos  int
	history  []HistoryEntry
	paused   bool

	// Countdown state, driven by timer.go.
	timerGen  int
	timerLeft int
	timerMax  int
	tick      time.Duration

	createdAt  time.Time
	lastActive time.Time
	closed     bool
}

func newRoom(id, owner string, public bool, password string, reg *Registry) *Room {
	now := time.Now()
	settings := defaultSettings(owner)
	settings.PublicVisible = public
	settings.Password = password

	r := &Room{
		id:         id,
		logf:       reg.opts.logf(),
		deck:       reg.opts.newDeck(),
		registry:   reg,
		settings:   settings,
		owner:      owner,
		banned:     make(map[string]bool),
		conns:      make(map[string]conn),
		phase:      PhaseLobby,
		czarPos:    -1,
		tick:       reg.opts.tickInterval(),
		createdAt:  now,
		lastActive: now,
	}
	return r
}

// ID returns the room's registry key.
func (r *Room) ID() string {
	return r.id
}

// --- broadcast plumbing ---

func (r *Room) sendToLocked(name string, msg any) {
	c, ok := r.conns[name]
	if !ok {
		return
	}
	if !c.enqueue(msg) {
		delete(r.conns, name)
		c.kill()
	}
}

func (r *Room) broadcastLocked(msg any) {
	for name, c := range r.conns {
		if !c.enqueue(msg) {
			delete(r.conns, name)
			c.kill()
		}
	}
}

// broadcastSnapshotLocked pushes a per-viewer snapshot to every member.
func (r *Room) broadcastSnapshotLocked(typ string) {
	for name := range r.conns {
		r.sendToLocked(name, r.snapshotLocked(name, typ))
	}
}

// --- roster helpers ---

func (r *Room) findPlayerLocked(name string) (*Player, int) {
	for i, p := range r.players {
		if p.Name == name {
			return p, i
		}
	}
	return nil, -1
}

func (r *Room) activePlayersLocked() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.eligible() {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) scoresLocked() map[string]int {
	scores := make(map[string]int, len(r.players))
	for _, p := range r.players {
		if !p.Spectator {
			scores[p.Name] = p.Score
		}
	}
	return scores
}

func (r *Room) inGameLocked() bool {
	switch r.phase {
	case PhaseAnswering, PhaseVoting, PhaseCountdown:
		return true
	}
	return false
}

// snapshotLocked builds the full room view for one member. The viewer's
// own hand is the only hand included; submissions are revealed (in
// presentation order, anonymized) from voting onwards; the room password
// is only echoed back to the owner.
func (r *Room) snapshotLocked(viewer, typ string) RoomSnapshot {
	snap := RoomSnapshot{
		Type:     typ,
		RoomID:   r.id,
		Owner:    r.owner,
		Phase:    r.phase,
		Round:    r.roundNum,
		Players:  make([]PlayerInfo, 0, len(r.players)),
		Scores:   r.scoresLocked(),
		TimeLeft: r.timerLeft,
		MaxTime:  r.timerMax,
		Paused:   r.paused,
		Settings: r.settings,
		History:  slices.Clone(r.history),
	}
	if viewer != r.owner {
		snap.Settings.Password = ""
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, PlayerInfo{
			Name:      p.Name,
			Spectator: p.Spectator,
			Status:    p.Status,
			Score:     p.Score,
			Pending:   p.Pending,
		})
	}
	if r.round != nil {
		rd := r.round
		snap.Czar = rd.Czar
		snap.BlackCard = &rd.Black
		snap.SubmittedCount = len(rd.submissions)
		snap.EligibleCount = len(rd.participants)
		snap.Winner = rd.Winner
		snap.WinningCards = slices.Clone(rd.WinningCards)
		if _, ok := rd.submissions[viewer]; ok {
			snap.Submitted = true
		}
		if p, _ := r.findPlayerLocked(viewer); p != nil {
			snap.Hand = slices.Clone(p.hand)
		}
		if r.phase == PhaseVoting || r.phase == PhaseCountdown {
			snap.Submissions = make([][]WhiteCard, 0, len(rd.order))
			for _, name := range rd.order {
				snap.Submissions = append(snap.Submissions, slices.Clone(rd.submissions[name]))
			}
		}
	}
	return snap
}

// Snapshot returns the room state as seen by one member.
func (r *Room) Snapshot(viewer, typ string) RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(viewer, typ)
}

func (r *Room) summaryLocked() (RoomSummary, bool) {
	started := r.inGameLocked() || r.phase == PhaseEnded
	visible := r.settings.PublicVisible
	if started {
		visible = r.settings.PublicVisibleDuringGame
	}
	return RoomSummary{
		ID:          r.id,
		Name:        r.settings.GameName,
		Players:     len(r.activePlayersLocked()),
		MaxPlayers:  r.settings.MaxPlayers,
		HasPassword: r.settings.Password != "",
		Started:     started,
	}, visible
}

// Summary returns the public listing entry and whether the room should be
// listed at all right now.
func (r *Room) Summary() (RoomSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaryLocked()
}

// Info answers a link-join lookup.
func (r *Room) Info() RoomInfoMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfoMessage{
		Type:        "room_info",
		ID:          r.id,
		Name:        r.settings.GameName,
		HasPassword: r.settings.Password != "",
		Started:     r.inGameLocked() || r.phase == PhaseEnded,
	}
}

// LastActive reports the last mutation time, for the idle reaper.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Close drops every attachment. Called by the registry once the room has
// been removed from the index.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.timerGen++
	for name, c := range r.conns {
		delete(r.conns, name)
		c.kill()
	}
}

// --- membership ---

// join adds a member. The caller (registry) has already resolved the room;
// password, capacity, and ban checks happen here under the room lock.
func (r *Room) join(name, password string, spectator bool, c conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.banned[name] {
		return ErrKicked
	}
	if r.settings.Password != "" && r.settings.Password != password {
		return ErrWrongPassword
	}
	if p, _ := r.findPlayerLocked(name); p != nil {
		return ErrNameTaken
	}
	if !spectator {
		count := 0
		for _, p := range r.players {
			if !p.Spectator {
				count++
			}
		}
		if count >= r.settings.MaxPlayers {
			return ErrRoomFull
		}
	}

	p := &Player{
		Name:      name,
		Spectator: spectator,
		Status:    StatusConnected,
		Pending:   !spectator && r.inGameLocked(),
	}
	r.players = append(r.players, p)
	r.conns[name] = c
	r.lastActive = time.Now()
	r.logf("BLANKS: %q joined room %s (spectator=%t)", name, r.id, spectator)

	r.broadcastLocked(PlayerJoinedMessage{Type: "player_joined", Name: name, Spectator: spectator})
	r.broadcastSnapshotLocked("room_state")
	r.sendToLocked(name, r.snapshotLocked(name, "game_joined"))
	return nil
}

// Leave removes a member voluntarily. Same roster cleanup as a grace
// expiry, but the leaver keeps their connection and lands back in the
// lobby; only kick, expiry, and room close tear transports down.
func (r *Room) Leave(name string) {
	r.mu.Lock()
	p, _ := r.findPlayerLocked(name)
	if p == nil {
		r.mu.Unlock()
		return
	}
	r.sendToLocked(name, LeftRoomMessage{Type: "left_room"})
	delete(r.conns, name)
	empty := r.removePlayerLocked(name)
	r.mu.Unlock()
	r.afterRemoval(empty)
}

// RemoveExpired removes a member whose reconnect grace window ran out.
func (r *Room) RemoveExpired(name string) {
	r.mu.Lock()
	if p, _ := r.findPlayerLocked(name); p == nil {
		r.mu.Unlock()
		return
	}
	r.logf("BLANKS: %q timed out of room %s", name, r.id)
	empty := r.removePlayerLocked(name)
	r.mu.Unlock()
	r.afterRemoval(empty)
}

// Kick permanently removes target. The owner cannot kick themselves;
// ownership is handed off by leaving instead.
func (r *Room) Kick(by, target string) error {
	r.mu.Lock()
	if r.owner != by {
		r.mu.Unlock()
		return ErrNotOwner
	}
	if by == target {
		r.mu.Unlock()
		return ErrNotOwner
	}
	p, _ := r.findPlayerLocked(target)
	if p == nil {
		r.mu.Unlock()
		return ErrPlayerNotFound
	}
	r.banned[target] = true
	r.sendToLocked(target, KickedMessage{
		Type:    "kicked",
		Message: fmt.Sprintf("You have been removed from the game by %s.", by),
	})
	r.logf("BLANKS: %q kicked %q from room %s", by, target, r.id)
	empty := r.removePlayerLocked(target)
	r.mu.Unlock()
	r.afterRemoval(empty)
	return nil
}

// afterRemoval runs the registry-side consequences of a roster change
// outside the room lock.
func (r *Room) afterRemoval(empty bool) {
	if empty {
		r.registry.Remove(r.id)
	}
	r.registry.publicGamesChanged()
}

// removePlayerLocked performs the full cleanup for leave, kick, and grace
// expiry. Reports whether the room is now without active players and
// should be reclaimed.
func (r *Room) removePlayerLocked(name string) bool {
	p, idx := r.findPlayerLocked(name)
	if p == nil || r.closed {
		return false
	}

	r.players = slices.Delete(r.players, idx, idx+1)
	if idx < r.czarPos {
		r.czarPos--
	} else if idx == r.czarPos {
		// Czar seat collapses onto the next player; step back so the
		// rotation does not skip them.
		r.czarPos--
	}

	if c, ok := r.conns[name]; ok {
		delete(r.conns, name)
		c.kill()
	}
	if len(p.hand) > 0 {
		r.deck.Discard(p.hand)
		p.hand = nil
	}

	wasCzar := false
	if r.round != nil {
		rd := r.round
		wasCzar = rd.Czar == name
		delete(rd.participants, name)
		if r.phase == PhaseAnswering {
			if cards, ok := rd.submissions[name]; ok {
				r.deck.Discard(cards)
				delete(rd.submissions, name)
			}
		}
		// Once voting has begun the presentation order is frozen; a
		// departed player's submission stays on the table and voting
		// for it simply produces no winner.
	}

	r.lastActive = time.Now()
	r.broadcastLocked(PlayerLeftMessage{Type: "player_left", Name: name})

	if r.owner == name {
		r.owner = ""
		for _, q := range r.players {
			if !q.Spectator {
				r.owner = q.Name
				break
			}
		}
		if r.owner != "" {
			r.broadcastLocked(OwnerChangedMessage{Type: "owner_changed", Owner: r.owner})
			r.logf("BLANKS: ownership of room %s passed to %q", r.id, r.owner)
		}
	}

	if r.inGameLocked() {
		if len(r.activePlayersLocked()) < 2 {
			r.forceLobbyLocked()
		} else if wasCzar && (r.phase == PhaseAnswering || r.phase == PhaseVoting) {
			// The judge is gone; void the round, nobody scores.
			r.finishRoundLocked("")
		} else if r.phase == PhaseAnswering {
			r.maybeCloseAnsweringLocked()
		}
	}

	r.broadcastSnapshotLocked("room_state")
	return r.owner == ""
}

// MarkStatus records a connection status change and tells the peers.
func (r *Room) MarkStatus(name string, status ConnStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _ := r.findPlayerLocked(name)
	if p == nil {
		return
	}
	p.Status = status
	if status != StatusConnected {
		if c, ok := r.conns[name]; ok {
			delete(r.conns, name)
			c.kill()
		}
	}
	r.lastActive = time.Now()
	r.broadcastLocked(PlayerStatusMessage{Type: "player_status", Name: name, Status: status})
}

// Reconnect swaps in a fresh attachment for a member inside the grace
// window and returns the snapshot the client rebuilds its view from.
func (r *Room) Reconnect(name string, c conn) (RoomSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, _ := r.findPlayerLocked(name)
	if p == nil {
		return RoomSnapshot{}, ErrSessionExpired
	}
	if old, ok := r.conns[name]; ok {
		old.kill()
	}
	p.Status = StatusConnected
	r.conns[name] = c
	r.lastActive = time.Now()
	r.broadcastLocked(PlayerStatusMessage{Type: "player_status", Name: name, Status: StatusConnected})
	return r.snapshotLocked(name, "reconnected"), nil
}

// --- roles, settings, ownership ---

func (r *Room) editableLocked() bool {
	return r.phase == PhaseLobby || r.phase == PhaseEnded
}

// ToggleRole flips the caller between player and spectator. Only allowed
// while the roster is editable.
func (r *Room) ToggleRole(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.toggleRoleLocked(name, "")
}

// ForceRole is the owner-only version of ToggleRole for another member.
func (r *Room) ForceRole(by, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner != by {
		return ErrNotOwner
	}
	if by == target {
		return ErrNotOwner
	}
	return r.toggleRoleLocked(target, by)
}

func (r *Room) toggleRoleLocked(name, forcedBy string) error {
	if !r.editableLocked() {
		return ErrInvalidPhase
	}
	p, _ := r.findPlayerLocked(name)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.Spectator = !p.Spectator
	if p.Spectator {
		if len(p.hand) > 0 {
			r.deck.Discard(p.hand)
			p.hand = nil
		}
		p.Score = 0
	}
	r.lastActive = time.Now()
	r.broadcastLocked(RoleChangedMessage{
		Type:      "role_changed",
		Name:      name,
		Spectator: p.Spectator,
		ForcedBy:  forcedBy,
	})
	r.broadcastSnapshotLocked("room_state")
	return nil
}

// UpdateSettings applies an owner's settings patch. Lobby only.
func (r *Room) UpdateSettings(by string, patch SettingsPatch) error {
	r.mu.Lock()
	if r.owner != by {
		r.mu.Unlock()
		return ErrNotOwner
	}
	if r.phase != PhaseLobby {
		r.mu.Unlock()
		return ErrInvalidPhase
	}
	r.settings.apply(patch)
	r.lastActive = time.Now()
	r.broadcastSnapshotLocked("settings_updated")
	r.mu.Unlock()
	r.registry.publicGamesChanged()
	return nil
}

// --- lifecycle ---

// StartGame moves the room from the lobby into round 1.
func (r *Room) StartGame(by string) error {
	r.mu.Lock()
	if r.owner != by {
		r.mu.Unlock()
		return ErrNotOwner
	}
	if r.phase != PhaseLobby {
		r.mu.Unlock()
		return ErrAlreadyInProgress
	}
	if len(r.activePlayersLocked()) < 2 {
		r.mu.Unlock()
		return ErrInvalidPhase
	}

	for _, p := range r.players {
		p.Score = 0
		p.Pending = false
	}
	r.history = nil
	r.roundNum = 1
	r.czarPos = -1
	r.paused = false
	r.logf("BLANKS: game started in room %s", r.id)
	r.startRoundLocked("game_started")
	r.mu.Unlock()
	r.registry.publicGamesChanged()
	return nil
}

// Pause freezes the active timer and blocks submissions and votes.
func (r *Room) Pause(by string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner != by {
		return ErrNotOwner
	}
	if !r.inGameLocked() || r.paused {
		return ErrInvalidPhase
	}
	r.paused = true
	r.lastActive = time.Now()
	r.broadcastLocked(PauseMessage{Type: "game_paused", TimeLeft: r.timerLeft})
	return nil
}

// Resume restarts the countdown from the frozen remaining time.
func (r *Room) Resume(by string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.owner != by {
		return ErrNotOwner
	}
	if !r.inGameLocked() || !r.paused {
		return ErrInvalidPhase
	}
	r.paused = false
	r.lastActive = time.Now()
	r.broadcastLocked(PauseMessage{Type: "game_resumed", TimeLeft: r.timerLeft})
	return nil
}

// ResetToLobby clears all game state after a finished game.
func (r *Room) ResetToLobby(by string) error {
	r.mu.Lock()
	if r.owner != by {
		r.mu.Unlock()
		return ErrNotOwner
	}
	if r.phase != PhaseEnded {
		r.mu.Unlock()
		return ErrInvalidPhase
	}
	r.cancelTimerLocked()
	r.discardRoundLocked()
	for _, p := range r.players {
		p.Score = 0
		p.Pending = false
		if len(p.hand) > 0 {
			r.deck.Discard(p.hand)
			p.hand = nil
		}
	}
	r.roundNum = 0
	r.history = nil
	r.phase = PhaseLobby
	r.paused = false
	r.lastActive = time.Now()
	r.logf("BLANKS: room %s reset to lobby", r.id)
	r.broadcastSnapshotLocked("game_reset_to_lobby")
	r.mu.Unlock()
	r.registry.publicGamesChanged()
	return nil
}

// forceLobbyLocked aborts a running game that can no longer continue
// (roster below two active players). Scores and round counter are kept
// for display until the next start.
func (r *Room) forceLobbyLocked() {
	r.cancelTimerLocked()
	r.discardRoundLocked()
	for _, p := range r.players {
		if len(p.hand) > 0 {
			r.deck.Discard(p.hand)
			p.hand = nil
		}
	}
	r.phase = PhaseLobby
	r.paused = false
	r.logf("BLANKS: room %s fell back to the lobby", r.id)
	r.broadcastSnapshotLocked("room_state")
}

// discardRoundLocked returns any in-flight submissions to the deck and
// drops the current round.
func (r *Room) discardRoundLocked() {
	if r.round == nil {
		return
	}
	for _, cards := range r.round.submissions {
		r.deck.Discard(cards)
	}
	r.round = nil
}
