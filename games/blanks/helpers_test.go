package blanks

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeConn records everything a room pushes at it.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []any
	killed bool
}

func (c *fakeConn) enqueue(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.killed {
		return false
	}
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *fakeConn) kill() {
	c.mu.Lock()
	c.killed = true
	c.mu.Unlock()
}

func (c *fakeConn) dead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.killed
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.msgs)
}

// lastOf scans a connection's backlog for the most recent message of one
// concrete type.
func lastOf[T any](c *fakeConn) (T, bool) {
	msgs := c.messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if m, ok := msgs[i].(T); ok {
			return m, true
		}
	}
	var zero T
	return zero, false
}

// stubDeck deals sequentially numbered white cards and a fixed prompt,
// so hands and submissions are predictable.
type stubDeck struct {
	blanks   int
	dealt    int
	discards []WhiteCard
}

func (d *stubDeck) DrawBlack() BlackCard {
	blanks := d.blanks
	if blanks == 0 {
		blanks = 1
	}
	return BlackCard{Text: "Why ____?", Blanks: blanks}
}

func (d *stubDeck) DrawWhite(n int) []WhiteCard {
	out := make([]WhiteCard, 0, n)
	for i := 0; i < n; i++ {
		d.dealt++
		out = append(out, WhiteCard(fmt.Sprintf("white-%03d", d.dealt)))
	}
	return out
}

func (d *stubDeck) Discard(cards []WhiteCard) {
	d.discards = append(d.discards, cards...)
}

func newTestRegistry(opts Options) (*Registry, *SessionManager) {
	if opts.NewDeck == nil {
		opts.NewDeck = func() Deck { return &stubDeck{} }
	}
	sm := newSessionManager(opts.grace(), opts.logf())
	return newRegistry(opts, sm), sm
}

// roomFixture is a registry with a single room and a recording
// connection per seat.
type roomFixture struct {
	reg   *Registry
	room  *Room
	owner string
	conns map[string]*fakeConn
}

// setupRoom creates a room owned by names[0] and seats the rest as
// active players.
func setupRoom(t *testing.T, names ...string) *roomFixture {
	t.Helper()
	reg, _ := newTestRegistry(Options{})

	owner := names[0]
	oc := &fakeConn{}
	room, err := reg.Create(owner, owner+"'s game", true, "", oc)
	require.NoError(t, err)

	f := &roomFixture{
		reg:   reg,
		room:  room,
		owner: owner,
		conns: map[string]*fakeConn{owner: oc},
	}
	for _, name := range names[1:] {
		c := &fakeConn{}
		_, err := reg.Join(name, room.ID(), "", false, c)
		require.NoError(t, err)
		f.conns[name] = c
	}
	return f
}

func (f *roomFixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.room.StartGame(f.owner))
}

func (f *roomFixture) phase() Phase {
	f.room.mu.Lock()
	defer f.room.mu.Unlock()
	return f.room.phase
}

func (f *roomFixture) czar() string {
	f.room.mu.Lock()
	defer f.room.mu.Unlock()
	if f.room.round == nil {
		return ""
	}
	return f.room.round.Czar
}

func (f *roomFixture) order() []string {
	f.room.mu.Lock()
	defer f.room.mu.Unlock()
	return slices.Clone(f.room.round.order)
}

func (f *roomFixture) score(name string) int {
	f.room.mu.Lock()
	defer f.room.mu.Unlock()
	p, _ := f.room.findPlayerLocked(name)
	if p == nil {
		return -1
	}
	return p.Score
}

func (f *roomFixture) handSize(name string) int {
	f.room.mu.Lock()
	defer f.room.mu.Unlock()
	p, _ := f.room.findPlayerLocked(name)
	if p == nil {
		return -1
	}
	return len(p.hand)
}

// submitAll submits the first card(s) for every participant of the
// current round, which also closes the answering phase.
func (f *roomFixture) submitAll(t *testing.T) {
	t.Helper()
	f.room.mu.Lock()
	blanks := f.room.round.Black.Blanks
	names := make([]string, 0, len(f.room.round.participants))
	for name := range f.room.round.participants {
		names = append(names, name)
	}
	f.room.mu.Unlock()

	indices := make([]int, blanks)
	for i := range indices {
		indices[i] = i
	}
	slices.Sort(names)
	for _, name := range names {
		require.NoError(t, f.room.Submit(name, indices))
	}
}

// voteFor casts the czar's vote for a specific submitter by looking up
// their presentation slot.
func (f *roomFixture) voteFor(t *testing.T, submitter string) {
	t.Helper()
	idx := slices.Index(f.order(), submitter)
	require.GreaterOrEqual(t, idx, 0, "submitter %q not in presentation order", submitter)
	require.NoError(t, f.room.Vote(f.czar(), idx))
}

// expireTimer applies the current phase's timeout effect without waiting
// for the ticker.
func (f *roomFixture) expireTimer() {
	f.room.mu.Lock()
	f.room.timerGen++
	f.room.timerExpiredLocked()
	f.room.mu.Unlock()
}
