package blanks

import "errors"

// Rejections surfaced to the initiating client. None of these leave the
// room in a partially mutated state.
var (
	ErrNameTaken         = errors.New("name already in use")
	ErrInvalidName       = errors.New("invalid name")
	ErrRoomNotFound      = errors.New("room not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrRoomFull          = errors.New("room full")
	ErrNotOwner          = errors.New("only the owner may do that")
	ErrNotCzar           = errors.New("only the card czar may do that")
	ErrInvalidPhase      = errors.New("action not valid in the current phase")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrAlreadyInProgress = errors.New("game already in progress")
	ErrNotInRoom         = errors.New("not in a room")
	ErrKicked            = errors.New("removed from this room")
)

// errorKind maps a rejection to the stable identifier sent on the wire.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNameTaken):
		return "name_taken"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrWrongPassword):
		return "wrong_password"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrNotCzar):
		return "not_czar"
	case errors.Is(err, ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, ErrInvalidSubmission):
		return "invalid_submission"
	case errors.Is(err, ErrPlayerNotFound):
		return "player_not_found"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrAlreadyInProgress):
		return "already_in_progress"
	case errors.Is(err, ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, ErrKicked):
		return "kicked"
	default:
		return "error"
	}
}
