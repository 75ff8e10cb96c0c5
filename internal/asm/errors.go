package asm

import "errors"

var (
	// ErrUnsupportedDepth is returned for compiled sprites that are not 8-bit.
	ErrUnsupportedDepth = errors.New("truecolor compiled sprites not supported")
	// ErrPayload is returned when an object's payload does not match its type.
	ErrPayload = errors.New("unexpected payload")
	// ErrStream marks a write failure on one of the output streams.
	ErrStream = errors.New("output stream fault")
)
