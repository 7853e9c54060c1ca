package rag

import "errors"

var (
	// ErrNotReady means no index has been built yet.
	ErrNotReady = errors.New("index not ready")
	// ErrRebuildInProgress means another rebuild is already running.
	ErrRebuildInProgress = errors.New("rebuild already in progress")
)
