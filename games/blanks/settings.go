package blanks

// Settings are per-room and owner-editable while the room sits in the lobby.
type Settings struct {
	GameName                string `json:"game_name"`
	PublicVisible           bool   `json:"public_visible"`
	PublicVisibleDuringGame bool   `json:"public_visible_during_game"`
	Password                string `json:"password"`
	MaxHandSize             int    `json:"max_hand_size"`
	PointsToWin             int    `json:"points_to_win"`
	MaxRounds               int    `json:"max_rounds"`
	AnswerSeconds           int    `json:"answer_seconds"`
	VoteSeconds             int    `json:"vote_seconds"`
	RoundDelaySeconds       int    `json:"round_delay_seconds"`
	MaxPlayers              int    `json:"max_players"`
}

func defaultSettings(owner string) Settings {
	return Settings{
		GameName:          owner + "'s Game",
		PublicVisible:     true,
		MaxHandSize:       7,
		PointsToWin:       5,
		MaxRounds:         25,
		AnswerSeconds:     60,
		VoteSeconds:       60,
		RoundDelaySeconds: 15,
		MaxPlayers:        100,
	}
}

// SettingsPatch carries owner edits; nil fields are left untouched.
type SettingsPatch struct {
	GameName                *string `json:"game_name,omitempty"`
	PublicVisible           *bool   `json:"public_visible,omitempty"`
	PublicVisibleDuringGame *bool   `json:"public_visible_during_game,omitempty"`
	Password                *string `json:"password,omitempty"`
	MaxHandSize             *int    `json:"max_hand_size,omitempty"`
	PointsToWin             *int    `json:"points_to_win,omitempty"`
	MaxRounds               *int    `json:"max_rounds,omitempty"`
	AnswerSeconds           *int    `json:"answer_seconds,omitempty"`
	VoteSeconds             *int    `json:"vote_seconds,omitempty"`
	RoundDelaySeconds       *int    `json:"round_delay_seconds,omitempty"`
	MaxPlayers              *int    `json:"max_players,omitempty"`
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// apply folds a patch into s, clamping numeric fields to sane ranges.
func (s *Settings) apply(p SettingsPatch) {
	if p.GameName != nil {
		if name, err := validateName(*p.GameName); err == nil {
			s.GameName = name
		}
	}
	if p.PublicVisible != nil {
		s.PublicVisible = *p.PublicVisible
	}
	if p.PublicVisibleDuringGame != nil {
		s.PublicVisibleDuringGame = *p.PublicVisibleDuringGame
	}
	if p.Password != nil {
		s.Password = *p.Password
	}
	if p.MaxHandSize != nil {
		s.MaxHandSize = clamp(*p.MaxHandSize, 3, 20)
	}
	if p.PointsToWin != nil {
		s.PointsToWin = clamp(*p.PointsToWin, 1, 100)
	}
	if p.MaxRounds != nil {
		s.MaxRounds = clamp(*p.MaxRounds, 1, 200)
	}
	if p.AnswerSeconds != nil {
		s.AnswerSeconds = clamp(*p.AnswerSeconds, 10, 600)
	}
	if p.VoteSeconds != nil {
		s.VoteSeconds = clamp(*p.VoteSeconds, 10, 600)
	}
	if p.RoundDelaySeconds != nil {
		s.RoundDelaySeconds = clamp(*p.RoundDelaySeconds, 3, 120)
	}
	if p.MaxPlayers != nil {
		s.MaxPlayers = clamp(*p.MaxPlayers, 2, 100)
	}
}
