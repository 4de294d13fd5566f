package models

import "errors"

var (
	// storage
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")

	// credentials
	ErrAuthFailure        = errors.New("incorrect username or password")
	ErrInvalidCredentials = errors.New("username and password are required")
)
