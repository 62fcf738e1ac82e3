package blanks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	t.Run("Seats The Owner", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(Options{})
		c := &fakeConn{}
		room, err := reg.Create("alice", "friday night", true, "", c)
		require.NoError(t, err)

		got, err := reg.Get(room.ID())
		require.NoError(t, err)
		assert.Same(t, room, got)

		snap, ok := lastOf[RoomSnapshot](c)
		require.True(t, ok)
		assert.Equal(t, "game_joined", snap.Type)
		assert.Equal(t, "alice", snap.Owner)
		assert.Equal(t, "friday night", snap.Settings.GameName)
	})

	t.Run("Unusable Room Name Falls Back To The Default", func(t *testing.T) {
		t.Parallel()
		reg, _ := newTestRegistry(Options{})
		room, err := reg.Create("alice", "x", true, "", &fakeConn{})
		require.NoError(t, err)
		assert.Equal(t, "alice's Game", room.Snapshot("alice", "room_state").Settings.GameName)
	})
}

func TestRegistryList(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(Options{})
	_, err := reg.Create("alice", "apple orchard", true, "", &fakeConn{})
	require.NoError(t, err)
	_, err = reg.Create("bob", "banana stand", true, "secret", &fakeConn{})
	require.NoError(t, err)
	hidden, err := reg.Create("carol", "cherry cellar", false, "", &fakeConn{})
	require.NoError(t, err)

	t.Run("Private Rooms Stay Off The List", func(t *testing.T) {
		names := make([]string, 0)
		for _, s := range reg.List("") {
			names = append(names, s.Name)
		}
		assert.Equal(t, []string{"apple orchard", "banana stand"}, names, "sorted, private rooms excluded")
	})

	t.Run("Filter Is A Case Insensitive Substring", func(t *testing.T) {
		got := reg.List("BANANA")
		require.Len(t, got, 1)
		assert.Equal(t, "banana stand", got[0].Name)
		assert.True(t, got[0].HasPassword)
		assert.Equal(t, 1, got[0].Players)
		assert.Empty(t, reg.List("durian"))
	})

	t.Run("In Game Visibility Is Its Own Switch", func(t *testing.T) {
		_, err := reg.Join("dave", hidden.ID(), "", false, &fakeConn{})
		require.NoError(t, err)

		hidden.mu.Lock()
		hidden.settings.PublicVisible = true
		hidden.mu.Unlock()
		assert.Len(t, reg.List("cherry"), 1)

		require.NoError(t, hidden.StartGame("carol"))
		assert.Empty(t, reg.List("cherry"), "listed rooms disappear at start unless opted in")

		hidden.mu.Lock()
		hidden.settings.PublicVisibleDuringGame = true
		hidden.mu.Unlock()
		got := reg.List("cherry")
		require.Len(t, got, 1)
		assert.True(t, got[0].Started)
	})
}

func TestRegistryRoomInfo(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(Options{})
	room, err := reg.Create("alice", "friday night", false, "secret", &fakeConn{})
	require.NoError(t, err)

	// Link joins can probe even unlisted rooms, but only for the
	// password prompt, never the password itself.
	info := room.Info()
	assert.Equal(t, room.ID(), info.ID)
	assert.Equal(t, "friday night", info.Name)
	assert.True(t, info.HasPassword)
	assert.False(t, info.Started)
}

func TestRegistryPublicGamesPush(t *testing.T) {
	t.Parallel()

	reg, sm := newTestRegistry(Options{})
	lc := &fakeConn{}
	require.NoError(t, sm.Attach("lurker", lc))

	_, err := reg.Create("alice", "apple orchard", true, "", &fakeConn{})
	require.NoError(t, err)

	msg, ok := lastOf[PublicGamesMessage](lc)
	require.True(t, ok, "roomless sessions get listing updates pushed")
	require.Len(t, msg.Games, 1)
	assert.Equal(t, "apple orchard", msg.Games[0].Name)
}

func TestRegistryReaper(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(Options{RoomTimeout: 30 * time.Millisecond})
	c := &fakeConn{}
	room, err := reg.Create("alice", "idle game", true, "", c)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := reg.Get(room.ID())
		return err != nil
	}, 2*time.Second, 10*time.Millisecond, "idle rooms get reaped")
	assert.True(t, c.dead(), "reaping drops the remaining attachments")
}
