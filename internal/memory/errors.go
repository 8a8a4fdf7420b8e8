package memory

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrMemoryNotFound  = errors.New("memory not found")
	ErrHistoryNotFound = errors.New("no history found")
	ErrInvalidResponse = errors.New("invalid response format from memory store")
)
