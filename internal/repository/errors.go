package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conditional update lost")
	ErrAlreadyInSession = errors.New("player already has an active session")
)
