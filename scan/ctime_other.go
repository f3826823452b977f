//go:build !linux

package scan

import (
	"io/fs"
	"time"
)

func creationTime(path string, info fs.FileInfo) time.Time {
	return info.ModTime()
}
