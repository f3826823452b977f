package service

import "errors"

var (
	// ErrIndexNotFound is returned when an operation names an index that does not exist.
	ErrIndexNotFound = errors.New("index not found")
	// ErrDirectoryNotFound is returned when a directory to add does not exist.
	ErrDirectoryNotFound = errors.New("directory not found")
	// ErrNotSubmitted is returned when the task manager refuses a task.
	ErrNotSubmitted = errors.New("task not submitted")
	// ErrInvalidPath is returned for empty or otherwise unusable paths.
	ErrInvalidPath = errors.New("invalid path")
)
