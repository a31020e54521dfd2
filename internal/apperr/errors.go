// Package apperr holds the sentinel errors shared by the service, API and MCP layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTitle is returned when a title normalizes to an empty slug or
	// holds characters that cannot appear inside a [[...]] marker.
	ErrInvalidTitle = errors.New("invalid title")
	// ErrStaleSuggestion is returned when none of the submitted link
	// suggestions still match the document text.
	ErrStaleSuggestion = errors.New("stale suggestion")
)
