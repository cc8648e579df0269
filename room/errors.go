package room

import "errors"

// Sentinel errors returned by room commands. Their text is shown to players.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game already started")
	ErrNotHost        = errors.New("only the host can do that")
	ErrNotReady       = errors.New("not all players are ready")
	ErrPlayerCount    = errors.New("wrong number of players for this mode")
	ErrNotInRoom      = errors.New("not in a room")
	ErrTooManyRooms   = errors.New("server has no free rooms")
)
