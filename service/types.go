package service

import "github.com/lexandro/hslindex/task"

// SearchHit is one matching file.
type SearchHit struct {
	Path string `json:"path"`
}

// SearchResponse is the answer to a search request.
type SearchResponse struct {
	TotalResults    uint64      `json:"totalResults"`
	ReturnedResults int         `json:"returnedResults"`
	Results         []SearchHit `json:"results"`
}

// TaskStatusResponse describes one task.
type TaskStatusResponse struct {
	TaskID      task.ID    `json:"taskId"`
	State       task.State `json:"state"`
	Description string     `json:"description"`
}

// InterruptResponse reports whether an interrupt request reached a task.
type InterruptResponse struct {
	Interrupted bool `json:"interrupted"`
}

// ChangeKind classifies a filesystem change reported by the watcher.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangeDeleted
	ChangeSizeChanged
	ChangeRenamedFrom
	ChangeRenamedTo
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeDeleted:
		return "deleted"
	case ChangeSizeChanged:
		return "size-changed"
	case ChangeRenamedFrom:
		return "renamed-from"
	case ChangeRenamedTo:
		return "renamed-to"
	default:
		return "unknown"
	}
}

// Change is a single filesystem event.
type Change struct {
	Path string
	Kind ChangeKind
}

// ReconcileResult summarises one reconciliation of a root.
type ReconcileResult struct {
	Upserted int
	Removed  int
	Kept     int // indexed documents under paths the walk could not read
}
