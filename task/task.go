// Package task runs long-lived jobs on a bounded worker pool and tracks their status.
package task

import (
	"context"
	"errors"
	"fmt"
)

// ID identifies a submitted task. It is unique for the lifetime of the process.
type ID string

// State is the execution state of a task.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Error
	Interrupted
	// NotFound is only ever reported by the manager, never held by a task.
	NotFound
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case Error:
		return "ERROR"
	case Interrupted:
		return "INTERRUPTED"
	case NotFound:
		return "NOT_FOUND"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state by name in JSON responses.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether no further transitions can happen from s.
func (s State) Terminal() bool {
	return s == Completed || s == Error || s == Interrupted
}

// Status is a snapshot of a task's state and human-readable description.
type Status struct {
	State       State
	Description string
}

// ErrInterrupted may be returned by a task body that stops early on request.
// Returning an error wrapping context.Canceled has the same effect.
var ErrInterrupted = errors.New("task interrupted")

// Func is a task body. It should check ctx at safe points and return promptly once
// ctx is done.
type Func func(ctx context.Context, progress *Progress) error

// Progress lets a running task update its live description.
type Progress struct {
	manager *Manager
	entry   *entry
}

// Report replaces the task's description. Reporting on a nil Progress is a no-op.
func (p *Progress) Report(format string, args ...any) {
	if p == nil || p.manager == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	p.manager.mu.Lock()
	p.entry.description = msg
	p.manager.mu.Unlock()
}
