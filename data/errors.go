package data

import "errors"

// ErrNotFound is returned when the backend reports a missing record
var ErrNotFound = errors.New("record not found")

// ErrNotConnected is returned when a stream operation needs an open connection
var ErrNotConnected = errors.New("stream not connected")

// ErrUndoExpired is returned when an undo is attempted after its restore window closed
var ErrUndoExpired = errors.New("undo window expired")

// ErrUnknownUndo is returned for an undo token that was never issued or was already used
var ErrUnknownUndo = errors.New("unknown undo token")
