package leaderboard

import "errors"

var (
	ErrGuildNotRegistered = errors.New("guild is not registered")
	ErrDataUnavailable    = errors.New("leaderboard data unavailable")
	ErrIndexOutOfRange    = errors.New("page index out of range")
	ErrNotOwner           = errors.New("leaderboard belongs to another user")
	ErrSessionExpired     = errors.New("leaderboard session is no longer active")
	ErrUnknownAction      = errors.New("unknown leaderboard action")
	ErrUnknownMode        = errors.New("unknown leaderboard mode")
)
