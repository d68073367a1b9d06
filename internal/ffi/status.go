// Package ffi is the handle-free half of the C library: a Session wraps one
// engine behind a mutex and a panic guard, and every operation answers
// with a Status code instead of an error.
package ffi

import (
	"errors"

	"vietime/internal/shortcut"
)

// Status is the integer result of every exported call.
type Status int32

const (
	StatusOK              Status = 0
	StatusNullEngine      Status = -1
	StatusNullOutput      Status = -2
	StatusInvalidArgument Status = -3
	StatusPanic           Status = -4
	StatusAlreadyExists   Status = -5
	StatusNotFound        Status = -6
	StatusTableFull       Status = -7
)

var statusNames = map[Status]string{
	StatusOK:              "ok",
	StatusNullEngine:      "null engine",
	StatusNullOutput:      "null output",
	StatusInvalidArgument: "invalid argument",
	StatusPanic:           "internal panic",
	StatusAlreadyExists:   "already exists",
	StatusNotFound:        "not found",
	StatusTableFull:       "table full",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown status"
}

// StatusOf maps an error from the shortcut table to a status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, shortcut.ErrDuplicate):
		return StatusAlreadyExists
	case errors.Is(err, shortcut.ErrNotFound):
		return StatusNotFound
	case errors.Is(err, shortcut.ErrTableFull):
		return StatusTableFull
	default:
		return StatusInvalidArgument
	}
}
