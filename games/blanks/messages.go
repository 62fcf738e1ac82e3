package blanks

// Messages coming from clients. One struct, discriminated by Type, the
// unused fields left empty.
type ClientMessage struct {
	Type        string         `json:"type"`                   // see dispatch in websocket.go
	Name        string         `json:"name,omitempty"`         // set_name / reconnect_user / create_room (room name)
	RoomID      string         `json:"room_id,omitempty"`      // join_room / room_info
	Password    string         `json:"password,omitempty"`     // create_room / join_room
	Public      *bool          `json:"public,omitempty"`       // create_room
	Spectator   bool           `json:"spectator,omitempty"`    // join_room
	Target      string         `json:"target,omitempty"`       // kick_player / force_role
	CardIndices []int          `json:"card_indices,omitempty"` // submit_answers
	WinnerIndex *int           `json:"winner_index,omitempty"` // vote_winner
	Settings    *SettingsPatch `json:"settings,omitempty"`     // update_settings
	Filter      string         `json:"filter,omitempty"`       // list_rooms name substring
}

// Sent to the initiating client when an action is rejected.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func errorMessage(err error) ErrorMessage {
	return ErrorMessage{Type: "error", Kind: errorKind(err), Message: err.Error()}
}

type NameSetMessage struct {
	Type    string `json:"type"` // "name_set"
	Name    string `json:"name"`
	HasRoom bool   `json:"has_room"`
}

// PlayerInfo is the roster entry embedded in snapshots.
type PlayerInfo struct {
	Name      string     `json:"name"`
	Spectator bool       `json:"spectator"`
	Status    ConnStatus `json:"status"`
	Score     int        `json:"score"`
	Pending   bool       `json:"pending,omitempty"`
}

// RoomSnapshot is the full per-viewer room state, pushed on every
// state-affecting change. Type varies with the occasion ("room_state",
// "game_created", "game_joined", "game_started", "settings_updated",
// "game_reset_to_lobby", "reconnected").
type RoomSnapshot struct {
	Type           string         `json:"type"`
	RoomID         string         `json:"room_id"`
	Owner          string         `json:"owner"`
	Phase          Phase          `json:"phase"`
	Round          int            `json:"round"`
	Czar           string         `json:"czar,omitempty"`
	BlackCard      *BlackCard     `json:"black_card,omitempty"`
	Players        []PlayerInfo   `json:"players"`
	Hand           []WhiteCard    `json:"hand,omitempty"`
	Submitted      bool           `json:"submitted,omitempty"`
	SubmittedCount int            `json:"submitted_count"`
	EligibleCount  int            `json:"eligible_count"`
	Submissions    [][]WhiteCard  `json:"submissions,omitempty"` // presentation order, voting onwards
	Winner         string         `json:"winner,omitempty"`
	WinningCards   []WhiteCard    `json:"winning_cards,omitempty"`
	Scores         map[string]int `json:"scores"`
	TimeLeft       int            `json:"time_left"`
	MaxTime        int            `json:"max_time"`
	Paused         bool           `json:"paused"`
	Settings       Settings       `json:"settings"`
	History        []HistoryEntry `json:"history"`
}

type TimerTickMessage struct {
	Type     string `json:"type"` // "timer_tick"
	TimeLeft int    `json:"time_left"`
	MaxTime  int    `json:"max_time"`
}

type SubmissionProgressMessage struct {
	Type           string `json:"type"` // "submission_progress"
	SubmittedCount int    `json:"submitted_count"`
	EligibleCount  int    `json:"eligible_count"`
}

type RoundResultMessage struct {
	Type               string         `json:"type"`             // "round_result"
	Winner             string         `json:"winner,omitempty"` // empty when nobody won
	WinningCards       []WhiteCard    `json:"winning_cards,omitempty"`
	Scores             map[string]int `json:"scores"`
	NextRoundInSeconds int            `json:"next_round_in_seconds"`
}

type GameEndedMessage struct {
	Type        string         `json:"type"` // "game_ended"
	Winner      string         `json:"winner,omitempty"`
	FinalScores map[string]int `json:"final_scores"`
	History     []HistoryEntry `json:"history"`
}

type RoleChangedMessage struct {
	Type      string `json:"type"` // "role_changed"
	Name      string `json:"name"`
	Spectator bool   `json:"spectator"`
	ForcedBy  string `json:"forced_by,omitempty"`
}

type OwnerChangedMessage struct {
	Type  string `json:"type"` // "owner_changed"
	Owner string `json:"owner"`
}

type PlayerStatusMessage struct {
	Type   string     `json:"type"` // "player_status"
	Name   string     `json:"name"`
	Status ConnStatus `json:"status"`
}

type PlayerJoinedMessage struct {
	Type      string `json:"type"` // "player_joined"
	Name      string `json:"name"`
	Spectator bool   `json:"spectator"`
}

type PlayerLeftMessage struct {
	Type string `json:"type"` // "player_left"
	Name string `json:"name"`
}

type KickedMessage struct {
	Type    string `json:"type"` // "kicked"
	Message string `json:"message"`
}

type PauseMessage struct {
	Type     string `json:"type"` // "game_paused" / "game_resumed"
	TimeLeft int    `json:"time_left"`
}

type LeftRoomMessage struct {
	Type string `json:"type"` // "left_room"
}

// RoomSummary is one entry in the public games listing.
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Players     int    `json:"players"`
	MaxPlayers  int    `json:"max_players"`
	HasPassword bool   `json:"has_password"`
	Started     bool   `json:"started"`
}

type PublicGamesMessage struct {
	Type  string        `json:"type"` // "public_games_list"
	Games []RoomSummary `json:"games"`
}

// RoomInfoMessage answers link-join lookups without joining.
type RoomInfoMessage struct {
	Type        string `json:"type"` // "room_info"
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasPassword bool   `json:"has_password"`
	Started     bool   `json:"started"`
}
