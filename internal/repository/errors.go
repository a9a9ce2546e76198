package repository

import "errors"

// ErrStateNotFound is returned when no monitoring state has been persisted
// yet (first run against a fresh database).
var ErrStateNotFound = errors.New("monitoring state not found")
