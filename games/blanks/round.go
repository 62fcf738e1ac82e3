package blanks

import (
	"math/rand/v2"
	"slices"
	"time"
)

// Round is the state of one black card being played. Created when the
// room enters answering, folded into history when the room leaves
// countdown.
type Round struct {
	Number int
	Black  BlackCard
	Czar   string

	// participants are the eligible submitters (active, dealt-in,
	// non-czar) fixed at round start; shrinks when a seat is reclaimed.
	participants map[string]struct{}
	submissions  map[string][]WhiteCard

	// order is the anonymized presentation order, fixed once when voting
	// begins and independent of submission arrival.
	order []string

	Winner       string
	WinningCards []WhiteCard
}

// HistoryEntry is one completed round, retained for the room's lifetime.
type HistoryEntry struct {
	Round        int         `json:"round"`
	Czar         string      `json:"czar"`
	BlackCard    BlackCard   `json:"black_card"`
	Winner       string      `json:"winner,omitempty"`
	WinningCards []WhiteCard `json:"winning_cards,omitempty"`
}

// nextCzarLocked rotates the czar seat round-robin over the active
// roster in join order, skipping spectators and pending players.
func (r *Room) nextCzarLocked() *Player {
	n := len(r.players)
	if n == 0 {
		return nil
	}
	start := r.czarPos
	for i := 1; i <= n; i++ {
		idx := ((start+i)%n + n) % n
		if p := r.players[idx]; p.eligible() {
			r.czarPos = idx
			return p
		}
	}
	return nil
}

// dealHandsLocked tops every dealt-in player's hand up to the configured
// size.
func (r *Room) dealHandsLocked() {
	for _, p := range r.players {
		if !p.eligible() {
			continue
		}
		if missing := r.settings.MaxHandSize - len(p.hand); missing > 0 {
			p.hand = append(p.hand, r.deck.DrawWhite(missing)...)
		}
	}
}

// startRoundLocked deals the current round number in: pending players
// activate, the czar rotates, hands are topped up, and the answer timer
// starts. Falls back to the lobby when fewer than two active players
// remain.
func (r *Room) startRoundLocked(snapshotType string) {
	for _, p := range r.players {
		if p.Pending && !p.Spectator {
			p.Pending = false
		}
	}
	if len(r.activePlayersLocked()) < 2 {
		r.forceLobbyLocked()
		return
	}

	czar := r.nextCzarLocked()
	if czar == nil {
		r.forceLobbyLocked()
		return
	}
	r.dealHandsLocked()

	round := &Round{
		Number:       r.roundNum,
		Black:        r.deck.DrawBlack(),
		Czar:         czar.Name,
		participants: make(map[string]struct{}),
		submissions:  make(map[string][]WhiteCard),
	}
	for _, p := range r.players {
		if p.eligible() && p.Name != czar.Name {
			round.participants[p.Name] = struct{}{}
		}
	}
	r.round = round
	r.phase = PhaseAnswering
	r.lastActive = time.Now()
	r.startTimerLocked(r.settings.AnswerSeconds)
	r.broadcastSnapshotLocked(snapshotType)
}

// Submit accepts a player's answer cards for the current round. The
// selected cards leave the hand in the order given, so multi-blank
// prompts are filled the way the player arranged them.
func (r *Room) Submit(name string, cardIndices []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseAnswering || r.paused {
		return ErrInvalidPhase
	}
	rd := r.round
	if _, ok := rd.participants[name]; !ok {
		return ErrInvalidSubmission
	}
	if _, ok := rd.submissions[name]; ok {
		return ErrInvalidSubmission
	}
	p, _ := r.findPlayerLocked(name)
	if p == nil {
		return ErrPlayerNotFound
	}
	if len(cardIndices) != rd.Black.Blanks {
		return ErrInvalidSubmission
	}
	seen := make(map[int]bool, len(cardIndices))
	for _, idx := range cardIndices {
		if idx < 0 || idx >= len(p.hand) || seen[idx] {
			return ErrInvalidSubmission
		}
		seen[idx] = true
	}

	cards := make([]WhiteCard, 0, len(cardIndices))
	for _, idx := range cardIndices {
		cards = append(cards, p.hand[idx])
	}
	kept := p.hand[:0]
	for i, card := range p.hand {
		if !seen[i] {
			kept = append(kept, card)
		}
	}
	p.hand = kept
	rd.submissions[name] = cards
	r.lastActive = time.Now()

	r.broadcastLocked(SubmissionProgressMessage{
		Type:           "submission_progress",
		SubmittedCount: len(rd.submissions),
		EligibleCount:  len(rd.participants),
	})
	r.maybeCloseAnsweringLocked()
	return nil
}

// maybeCloseAnsweringLocked ends the answering phase early once every
// eligible player has submitted.
func (r *Room) maybeCloseAnsweringLocked() {
	if r.phase != PhaseAnswering || r.round == nil {
		return
	}
	if len(r.round.submissions) >= len(r.round.participants) {
		r.closeAnsweringLocked()
	}
}

// closeAnsweringLocked freezes the anonymized presentation order and
// opens voting. Players who did not submit are simply out of this round.
// A round with no submissions at all has nothing to vote on and is voided
// straight away.
func (r *Room) closeAnsweringLocked() {
	rd := r.round
	r.cancelTimerLocked()

	if len(rd.submissions) == 0 {
		r.finishRoundLocked("")
		return
	}

	order := make([]string, 0, len(rd.submissions))
	for name := range rd.submissions {
		order = append(order, name)
	}
	slices.Sort(order)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	rd.order = order

	r.phase = PhaseVoting
	r.lastActive = time.Now()
	r.startTimerLocked(r.settings.VoteSeconds)
	r.broadcastSnapshotLocked("room_state")
}

// Vote records the czar's pick by presentation index and closes the
// round.
func (r *Room) Vote(name string, presentationIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseVoting || r.paused {
		return ErrInvalidPhase
	}
	rd := r.round
	if name != rd.Czar {
		return ErrNotCzar
	}
	if presentationIndex < 0 || presentationIndex >= len(rd.order) {
		return ErrInvalidSubmission
	}
	r.cancelTimerLocked()
	r.finishRoundLocked(rd.order[presentationIndex])
	return nil
}

// finishRoundLocked resolves the round: credits the winner if they are
// still seated, records history, and starts the countdown to the next
// round. An empty winner means nobody scores.
func (r *Room) finishRoundLocked(winner string) {
	rd := r.round
	r.cancelTimerLocked()

	var winningCards []WhiteCard
	if winner != "" {
		winningCards = rd.submissions[winner]
		if p, _ := r.findPlayerLocked(winner); p != nil {
			p.Score++
		} else {
			// Winner's seat was reclaimed before the vote landed.
			winner = ""
			winningCards = nil
		}
	}
	rd.Winner = winner
	rd.WinningCards = slices.Clone(winningCards)

	r.history = append(r.history, HistoryEntry{
		Round:        rd.Number,
		Czar:         rd.Czar,
		BlackCard:    rd.Black,
		Winner:       winner,
		WinningCards: slices.Clone(winningCards),
	})
	for _, cards := range rd.submissions {
		r.deck.Discard(cards)
	}

	r.phase = PhaseCountdown
	r.lastActive = time.Now()
	r.startTimerLocked(r.settings.RoundDelaySeconds)
	r.broadcastLocked(RoundResultMessage{
		Type:               "round_result",
		Winner:             winner,
		WinningCards:       slices.Clone(winningCards),
		Scores:             r.scoresLocked(),
		NextRoundInSeconds: r.settings.RoundDelaySeconds,
	})
	r.broadcastSnapshotLocked("room_state")
}

// nextRoundLocked runs when the countdown ends: either the game is over
// or the next round begins.
func (r *Room) nextRoundLocked() {
	if r.phase != PhaseCountdown {
		return
	}
	for _, p := range r.players {
		if !p.Spectator && p.Score >= r.settings.PointsToWin {
			r.endGameLocked()
			return
		}
	}
	if r.roundNum >= r.settings.MaxRounds {
		r.endGameLocked()
		return
	}
	r.round = nil
	r.roundNum++
	r.startRoundLocked("room_state")
}

// endGameLocked closes the game and announces the winner (top score).
func (r *Room) endGameLocked() {
	r.cancelTimerLocked()
	r.round = nil
	r.phase = PhaseEnded
	r.paused = false
	r.lastActive = time.Now()

	winner := ""
	best := -1
	for _, p := range r.players {
		if !p.Spectator && p.Score > best {
			winner, best = p.Name, p.Score
		}
	}
	r.logf("BLANKS: game in room %s ended, winner %q", r.id, winner)
	r.broadcastLocked(GameEndedMessage{
		Type:        "game_ended",
		Winner:      winner,
		FinalScores: r.scoresLocked(),
		History:     slices.Clone(r.history),
	})
	r.broadcastSnapshotLocked("room_state")
}
