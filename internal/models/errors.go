package models

import "errors"

var (
	// ErrNotFound covers both absent records and records owned by someone
	// else, so callers cannot probe for existence.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write lost to a newer stored version, or a
	// unique key is already taken.
	ErrConflict        = errors.New("conflict")
	ErrCharityInUse    = errors.New("charity has active donations")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUpstreamTimeout = errors.New("upstream timeout")
)
