package session

import "errors"

var (
	// ErrNotFound is returned when a session cannot be found in the store.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when a session has outlived its absolute max age.
	ErrExpired = errors.New("session has expired")
	// ErrMissingUserID is returned when creating a session without a user.
	ErrMissingUserID = errors.New("user ID is required")
	// ErrSaveSession is returned when a session cannot be persisted.
	// Callers must treat it as "unable to establish session".
	ErrSaveSession = errors.New("failed to save session")
	// ErrCacheMiss is returned by Cache implementations when a key does not exist.
	ErrCacheMiss = errors.New("cache: key not found")
)
