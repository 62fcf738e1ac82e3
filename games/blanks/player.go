package blanks

import (
	"regexp"
	"strings"
)

// ConnStatus tracks whether a player's transport is live, inside the
// reconnect grace window, or gone for good.
type ConnStatus string

const (
	StatusConnected     ConnStatus = "connected"
	StatusDisconnecting ConnStatus = "disconnecting"
	StatusLeft          ConnStatus = "left"
)

// Player is one seat in a room, keyed by display name.
type Player struct {
	Name      string
	Spectator bool
	Status    ConnStatus
	Score     int

	// Pending players joined mid-game and are dealt in at the next round.
	Pending bool

	hand []WhiteCard
}

func (p *Player) eligible() bool {
	return !p.Spectator && !p.Pending
}

var innerSpace = regexp.MustCompile(`\s+`)

// validateName normalizes a display name and rejects anything outside the
// 2-30 character window. Returns the cleaned name.
func validateName(s string) (string, error) {
	s = strings.TrimSpace(innerSpace.ReplaceAllString(s, " "))
	if len(s) < 2 || len(s) > 30 {
		return "", ErrInvalidName
	}
	return s, nil
}
