package protocol

import "errors"

var (
	ErrShortRead     = errors.New("protocol: short read")
	ErrStringTooLong = errors.New("protocol: string exceeds maximum length")
	ErrUnknownTag    = errors.New("protocol: unknown message tag")
	ErrUnexpectedTag = errors.New("protocol: unexpected message tag")
	ErrEmptyMessage  = errors.New("protocol: empty message")
	ErrFrameTooLarge = errors.New("protocol: frame exceeds maximum size")
	ErrNoSnapshot    = errors.New("protocol: message has no snapshot target")
)
