package service

import "errors"

var (
	// ErrEmptyMessage means the caller sent no user text. Surfaced to the
	// HTTP boundary as a 400; never retried.
	ErrEmptyMessage = errors.New("message is required")

	// ErrProvider wraps a model or judge network/service failure. Surfaced
	// as a 502 with a generic message; capability failures and judge parse
	// failures are NOT provider errors — they degrade inside the turn.
	ErrProvider = errors.New("model provider failure")
)
