package session

import "errors"

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrUnknownView     = errors.New("unknown view")
	ErrWrongView       = errors.New("messages can only be sent from the chatbot view")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrEmptyTopic      = errors.New("topic is empty")
)
