package core

import "errors"

// Core client errors.
var (
	// ErrUnauthorized indicates the Core rejected the supplied API key.
	ErrUnauthorized = errors.New("core rejected credentials")

	// ErrRequestFailed indicates a non-success response from the Core.
	ErrRequestFailed = errors.New("core request failed")
)
