package engine

import "errors"

var (
	// ErrEmptyInput rejects text that trims to nothing. No state changes.
	ErrEmptyInput = errors.New("message text is empty")

	// ErrInvalidOperation rejects edits of non-user messages. No state changes.
	ErrInvalidOperation = errors.New("only user messages can be edited")

	// ErrNotFound means the target chat or message no longer exists.
	ErrNotFound = errors.New("chat or message not found")
)
