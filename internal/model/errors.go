package model

import "errors"

var (
	// ErrInvalidInput is returned for malformed identifiers or ranges. Nothing is processed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned for unknown engine, algorithm, user or insight ids.
	ErrNotFound = errors.New("not found")

	// ErrCollaboratorUnavailable marks a failed or timed out collaborator call. Callers may retry.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
)
