package store

import "errors"

var (
	ErrNotInitialized     = errors.New("store is not initialized")
	ErrAlreadyInitialized = errors.New("store is already initialized")
	ErrDisposed           = errors.New("store is disposed")
	ErrUnknownCommand     = errors.New("unknown command")
)
