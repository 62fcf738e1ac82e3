package blanks

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	if opts.NewDeck == nil {
		opts.NewDeck = func() Deck { return &stubDeck{} }
	}
	mux := httprouter.New()
	Register("", "/blanks", mux, opts)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/blanks"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

// recvType reads frames until one carries the wanted type, failing the
// test if it never shows up.
func recvType(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, ws.SetReadDeadline(deadline))
	for {
		var msg map[string]any
		require.NoError(t, ws.ReadJSON(&msg), "waiting for %q", typ)
		if msg["type"] == typ {
			return msg
		}
	}
}

func TestWebSocketSession(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{GraceWindow: time.Hour})

	alice := dialWS(t, srv)
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "set_name", Name: "alice"}))
	named := recvType(t, alice, "name_set")
	assert.Equal(t, "alice", named["name"])
	recvType(t, alice, "public_games_list")

	// Actions before naming are rejected.
	anon := dialWS(t, srv)
	require.NoError(t, anon.WriteJSON(ClientMessage{Type: "create_room"}))
	fail := recvType(t, anon, "error")
	assert.Equal(t, "invalid_name", fail["kind"])

	// Names are exclusive across the endpoint.
	imposter := dialWS(t, srv)
	require.NoError(t, imposter.WriteJSON(ClientMessage{Type: "set_name", Name: "alice"}))
	fail = recvType(t, imposter, "error")
	assert.Equal(t, "name_taken", fail["kind"])

	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "create_room", Name: "friday night"}))
	created := recvType(t, alice, "game_joined")
	roomID, _ := created["room_id"].(string)
	require.NotEmpty(t, roomID)

	bob := dialWS(t, srv)
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "set_name", Name: "bob"}))
	recvType(t, bob, "name_set")
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "room_info", RoomID: roomID}))
	info := recvType(t, bob, "room_info")
	assert.Equal(t, "friday night", info["name"])
	assert.Equal(t, false, info["has_password"])

	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "join_room", RoomID: roomID}))
	recvType(t, bob, "game_joined")
	recvType(t, alice, "player_joined")

	// A patchless settings update is malformed, not a phase problem.
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "update_settings"}))
	fail = recvType(t, alice, "error")
	assert.Equal(t, "invalid_submission", fail["kind"])

	// Only the owner can start; then a full round plays out over the wire.
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "start_game"}))
	fail = recvType(t, bob, "error")
	assert.Equal(t, "not_owner", fail["kind"])

	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "start_game"}))
	started := recvType(t, bob, "game_started")
	assert.Equal(t, string(PhaseAnswering), started["phase"])
	assert.Equal(t, "alice", started["czar"])
	hand, _ := started["hand"].([]any)
	require.Len(t, hand, 7)

	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "submit_answers", CardIndices: []int{0}}))
	recvType(t, bob, "submission_progress")
	voting := recvType(t, bob, "room_state")
	assert.Equal(t, string(PhaseVoting), voting["phase"])

	zero := 0
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "vote_winner", WinnerIndex: &zero}))
	result := recvType(t, bob, "round_result")
	assert.Equal(t, "bob", result["winner"])
}

func TestWebSocketReconnect(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{GraceWindow: time.Hour})

	alice := dialWS(t, srv)
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "set_name", Name: "alice"}))
	recvType(t, alice, "name_set")
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "create_room"}))
	created := recvType(t, alice, "game_joined")
	roomID, _ := created["room_id"].(string)

	bob := dialWS(t, srv)
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "set_name", Name: "bob"}))
	recvType(t, bob, "name_set")
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "join_room", RoomID: roomID}))
	recvType(t, bob, "game_joined")

	// Drop bob's transport; the room sees him disconnecting, not gone.
	bob.Close()
	status := recvType(t, alice, "player_status")
	assert.Equal(t, "bob", status["name"])
	assert.Equal(t, string(StatusDisconnecting), status["status"])

	bob2 := dialWS(t, srv)
	require.NoError(t, bob2.WriteJSON(ClientMessage{Type: "reconnect_user", Name: "bob"}))
	named := recvType(t, bob2, "name_set")
	assert.Equal(t, true, named["has_room"])
	snap := recvType(t, bob2, "reconnected")
	assert.Equal(t, roomID, snap["room_id"])

	status = recvType(t, alice, "player_status")
	assert.Equal(t, string(StatusConnected), status["status"])
}

func TestWebSocketLeaveRoom(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{GraceWindow: time.Hour})

	alice := dialWS(t, srv)
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "set_name", Name: "alice"}))
	recvType(t, alice, "name_set")
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "create_room"}))
	created := recvType(t, alice, "game_joined")
	roomID, _ := created["room_id"].(string)

	bob := dialWS(t, srv)
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "set_name", Name: "bob"}))
	recvType(t, bob, "name_set")
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "join_room", RoomID: roomID}))
	recvType(t, bob, "game_joined")

	// Leaving hands the seat back but keeps the socket: the farewell
	// arrives, the listing refreshes, and the same connection can go
	// straight back in.
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "leave_room"}))
	recvType(t, bob, "left_room")
	recvType(t, bob, "public_games_list")

	left := recvType(t, alice, "player_left")
	assert.Equal(t, "bob", left["name"])

	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "join_room", RoomID: roomID}))
	recvType(t, bob, "game_joined")
}

func TestWebSocketCleanClose(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{GraceWindow: time.Hour})

	alice := dialWS(t, srv)
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "set_name", Name: "alice"}))
	recvType(t, alice, "name_set")
	require.NoError(t, alice.WriteJSON(ClientMessage{Type: "create_room"}))
	created := recvType(t, alice, "game_joined")
	roomID, _ := created["room_id"].(string)
	require.NotEmpty(t, roomID)

	bob := dialWS(t, srv)
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "set_name", Name: "bob"}))
	recvType(t, bob, "name_set")
	require.NoError(t, bob.WriteJSON(ClientMessage{Type: "join_room", RoomID: roomID}))
	recvType(t, bob, "game_joined")

	// A deliberate goodbye frees the seat at once; with the hour-long
	// grace window configured here, seeing player_left (rather than a
	// lingering disconnecting status) proves no grace timer was armed.
	require.NoError(t, bob.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	left := recvType(t, alice, "player_left")
	assert.Equal(t, "bob", left["name"])
}

func TestQRCodeRoute(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Options{})

	resp, err := http.Get(srv.URL + "/blanks/some-room-id/qr")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}
