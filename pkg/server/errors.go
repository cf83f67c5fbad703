package server

import "errors"

var (
	ErrSessionClosed = errors.New("session is already closed")
	ErrSlowConsumer  = errors.New("session outbound buffer is full")
	ErrNoListeners   = errors.New("server has no listeners")
)
