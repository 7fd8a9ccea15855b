package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no port answers the discovery probe.
	ErrNotFound = errors.New("protocol: no TeCoLab device found")

	// ErrNoPorts is returned when the host has no serial ports at all.
	ErrNoPorts = errors.New("protocol: no serial devices connected")

	// ErrShortRead indicates the board answered fewer bytes than the frame
	// length, usually because the read timed out.
	ErrShortRead = errors.New("protocol: short read")

	// ErrChecksum indicates a frame whose trailing byte does not match.
	ErrChecksum = errors.New("protocol: checksum mismatch")

	// ErrUnknownCommand is reported by the board for a command it does not
	// implement.
	ErrUnknownCommand = errors.New("protocol: board rejected unknown command")
)

// FrameError is returned once every retry of an exchange has failed.
type FrameError struct {
	Command  byte
	Attempts int
	Wrapped  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("protocol: command %q failed after %d attempt(s): %v", e.Command, e.Attempts, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
