package domain

import "errors"

var (
	// ErrFetch is returned when a page cannot be downloaded (network failure or non-2xx)
	ErrFetch = errors.New("fetch failed")
	// ErrParse marks an extractor failure; it never leaves the orchestrator
	ErrParse = errors.New("parse failed")
	// ErrPersistence is returned when the product store cannot be written
	ErrPersistence = errors.New("persistence failed")
	// ErrIndex is returned when the retrieval index rejects an upsert or query
	ErrIndex = errors.New("index failed")
	// ErrNoResults is returned when a batch yields zero usable records
	ErrNoResults = errors.New("no results")
	// ErrNotFound is returned when a stored record does not exist
	ErrNotFound = errors.New("product not found")
)
