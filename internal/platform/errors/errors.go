package apperrors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoActiveSession   = errors.New("no active session")
	ErrSessionInProgress = errors.New("session already in progress")
	ErrNoFinishedSession = errors.New("no finished session to acknowledge")
	ErrEngineClosed      = errors.New("engine closed")
)
