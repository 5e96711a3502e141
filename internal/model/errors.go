package model

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrListNotFound is returned when a question list is not found.
	ErrListNotFound = errors.New("question list not found")

	// ErrInvalidListID is returned when a question list id is not a
	// name-safe slug.
	ErrInvalidListID = errors.New("invalid question list id")

	// ErrNameRequired is returned when a question list has no name.
	ErrNameRequired = errors.New("name is required")

	// ErrUnauthorized is returned when a privileged action carries no
	// valid access code.
	ErrUnauthorized = errors.New("unauthorized")
)
