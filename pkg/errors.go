package pkg

import "errors"

var (
	ErrPersist          = errors.New("failed to persist credentials")
	ErrAlreadyConnected = errors.New("user already connected")
	ErrInvalidHash      = errors.New("invalid hash format")
)
