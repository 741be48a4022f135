package websocket

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidMessage  = errors.New("invalid message format")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrChannelNotFound = errors.New("channel not found")
	ErrNotSubscribed   = errors.New("session is not subscribed to this channel")
)
