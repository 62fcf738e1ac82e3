package blanks

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one websocket attachment. Outbound messages go through a
// buffered channel; a peer that cannot keep up is dropped rather than
// allowed to stall the room.
type client struct {
	ws      *websocket.Conn
	send    chan any
	name    string
	limiter *rate.Limiter

	mu     sync.Mutex
	closed bool
}

func newClient(ws *websocket.Conn) *client {
	return &client{
		ws:   ws,
		send: make(chan any, 32),
		// Bursty but bounded: nobody legitimately sends 20 actions/s.
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

func (c *client) enqueue(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) kill() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.ws.Close()
}

func (c *client) writePump() {
	defer c.ws.Close()

	for msg := range c.send {
		if err := c.ws.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *client) readPump(e *engine) {
	clean := false
	defer func() {
		c.kill()
		if c.name == "" {
			return
		}
		if clean {
			e.sessions.Release(c.name, c)
		} else {
			e.sessions.Detach(c.name, c)
		}
	}()

	for {
		var msg ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			// A deliberate goodbye frees the seat at once; anything
			// else gets the reconnect grace window.
			clean = websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			return
		}
		if !c.limiter.Allow() {
			continue
		}
		e.dispatch(c, msg)
	}
}

// fail reports a rejection to the initiating client only.
func (c *client) fail(err error) {
	c.enqueue(errorMessage(err))
}

// dispatch routes one inbound event. Registry-scoped events need an
// attached name; room-scoped events additionally need a seat.
func (e *engine) dispatch(c *client, msg ClientMessage) {
	switch msg.Type {
	case "set_name":
		e.handleSetName(c, msg)
		return
	case "reconnect_user":
		e.handleReconnect(c, msg)
		return
	}

	if c.name == "" {
		c.fail(ErrInvalidName)
		return
	}

	switch msg.Type {
	case "create_room":
		e.handleCreate(c, msg)
	case "join_room":
		e.handleJoin(c, msg)
	case "list_rooms":
		c.enqueue(PublicGamesMessage{Type: "public_games_list", Games: e.registry.List(msg.Filter)})
	case "room_info":
		room, err := e.registry.Get(msg.RoomID)
		if err != nil {
			c.fail(err)
			return
		}
		c.enqueue(room.Info())
	case "leave_room":
		room := e.sessions.Room(c.name)
		if room == nil {
			c.fail(ErrNotInRoom)
			return
		}
		e.sessions.SetRoom(c.name, nil)
		room.Leave(c.name)
	default:
		e.dispatchRoom(c, msg)
	}
}

func (e *engine) dispatchRoom(c *client, msg ClientMessage) {
	room := e.sessions.Room(c.name)
	if room == nil {
		c.fail(ErrNotInRoom)
		return
	}

	var err error
	switch msg.Type {
	case "kick_player":
		if err = room.Kick(c.name, msg.Target); err == nil {
			e.sessions.SetRoom(msg.Target, nil)
		}
	case "toggle_role":
		err = room.ToggleRole(c.name)
	case "force_role":
		err = room.ForceRole(c.name, msg.Target)
	case "update_settings":
		if msg.Settings == nil {
			err = ErrInvalidSubmission
		} else {
			err = room.UpdateSettings(c.name, *msg.Settings)
		}
	case "start_game":
		err = room.StartGame(c.name)
	case "submit_answers":
		err = room.Submit(c.name, msg.CardIndices)
	case "vote_winner":
		if msg.WinnerIndex == nil {
			err = ErrInvalidSubmission
		} else {
			err = room.Vote(c.name, *msg.WinnerIndex)
		}
	case "pause_game":
		err = room.Pause(c.name)
	case "resume_game":
		err = room.Resume(c.name)
	case "reset_to_lobby":
		err = room.ResetToLobby(c.name)
	default:
		// ignore unknown types
		return
	}
	if err != nil {
		c.fail(err)
	}
}

func (e *engine) handleSetName(c *client, msg ClientMessage) {
	if c.name != "" {
		c.fail(ErrNameTaken)
		return
	}
	name, err := validateName(msg.Name)
	if err != nil {
		c.fail(err)
		return
	}
	if err := e.sessions.Attach(name, c); err != nil {
		c.fail(err)
		return
	}
	c.name = name
	c.enqueue(NameSetMessage{Type: "name_set", Name: name})
	c.enqueue(PublicGamesMessage{Type: "public_games_list", Games: e.registry.List("")})
}

func (e *engine) handleReconnect(c *client, msg ClientMessage) {
	if c.name != "" {
		c.fail(ErrNameTaken)
		return
	}
	name, err := validateName(msg.Name)
	if err != nil {
		c.fail(err)
		return
	}
	room, err := e.sessions.Reconnect(name, c)
	if err != nil {
		c.fail(err)
		return
	}
	c.name = name

	if room == nil {
		c.enqueue(NameSetMessage{Type: "name_set", Name: name})
		c.enqueue(PublicGamesMessage{Type: "public_games_list", Games: e.registry.List("")})
		return
	}
	snap, err := room.Reconnect(name, c)
	if err != nil {
		// The seat was reclaimed between session resume and room entry.
		e.sessions.SetRoom(name, nil)
		c.enqueue(NameSetMessage{Type: "name_set", Name: name})
		c.fail(err)
		return
	}
	c.enqueue(NameSetMessage{Type: "name_set", Name: name, HasRoom: true})
	c.enqueue(snap)
}

func (e *engine) handleCreate(c *client, msg ClientMessage) {
	if e.sessions.Room(c.name) != nil {
		c.fail(ErrAlreadyInProgress)
		return
	}
	public := true
	if msg.Public != nil {
		public = *msg.Public
	}
	room, err := e.registry.Create(c.name, msg.Name, public, msg.Password, c)
	if err != nil {
		c.fail(err)
		return
	}
	e.sessions.SetRoom(c.name, room)
}

func (e *engine) handleJoin(c *client, msg ClientMessage) {
	if e.sessions.Room(c.name) != nil {
		c.fail(ErrAlreadyInProgress)
		return
	}
	room, err := e.registry.Join(c.name, msg.RoomID, msg.Password, msg.Spectator, c)
	if err != nil {
		c.fail(err)
		return
	}
	e.sessions.SetRoom(c.name, room)
}

// serveWS upgrades the connection and runs the client pumps.
func serveWS(e *engine) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			e.opts.logf()("BLANKS: upgrade error: %v", err)
			return
		}

		c := newClient(ws)
		go c.writePump()
		c.readPump(e)
	}
}
