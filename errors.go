package turrero

import "errors"

var (
	// ErrKindMismatch is returned when a snapshot file classifies as a
	// different kind than its role in the pipeline requires.
	ErrKindMismatch = errors.New("turrero: snapshot kind mismatch")

	// ErrNoThreads is returned when the thread snapshot yields no threads.
	ErrNoThreads = errors.New("turrero: no threads in snapshot")
)
