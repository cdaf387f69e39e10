package event

import "errors"

var (
	ErrDraftExpired       = errors.New("event draft is no longer active")
	ErrNotOwner           = errors.New("event draft belongs to another member")
	ErrWrongStep          = errors.New("event draft is not at that step")
	ErrInvalidMonth       = errors.New("invalid event month")
	ErrInvalidContentType = errors.New("unknown content type")
	ErrInvalidDetails     = errors.New("invalid event details")
)
