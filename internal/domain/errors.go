package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidOrder   = errors.New("invalid order parameters")
	ErrSignerRejected = errors.New("signer rejected order")
	ErrWSDisconnect   = errors.New("websocket disconnected")
)
