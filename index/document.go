package index

import (
	"path/filepath"
	"time"
)

// Document is the metadata of one indexed file, keyed by its canonical path.
type Document struct {
	Path         string    // Canonical absolute path, also the document id
	Size         uint64    // Size in bytes
	Created      time.Time // Birth time, or modification time where unavailable
	LastModified time.Time
}

// fileDocument is the structure stored in bleve. Numeric fields are float64 because
// that is how bleve represents numbers; sizes and epoch milliseconds stay below 2^53.
type fileDocument struct {
	Name         string  `json:"name"`
	Path         string  `json:"path"`
	Size         float64 `json:"size"`
	Created      float64 `json:"created"`
	LastModified float64 `json:"last_modified"`
}

func toFileDocument(doc Document) fileDocument {
	return fileDocument{
		Name:         filepath.ToSlash(doc.Path),
		Path:         doc.Path,
		Size:         float64(doc.Size),
		Created:      float64(doc.Created.UnixMilli()),
		LastModified: float64(doc.LastModified.UnixMilli()),
	}
}
