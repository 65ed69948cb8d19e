package game

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotAuthorized = errors.New("only the host can do that")
	ErrNoRoomCode    = errors.New("could not allocate a room code")
)
