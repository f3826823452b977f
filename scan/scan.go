// Package scan walks directory trees and turns regular files into index documents.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lexandro/hslindex/ignore"
	"github.com/lexandro/hslindex/index"
)

const (
	DefaultBatchSize        = 500
	DefaultProgressInterval = 1000
)

// Sink receives documents in batches. A returned error aborts the walk.
type Sink func(docs []index.Document) error

// Reporter receives advisory progress messages.
type Reporter interface {
	Report(format string, args ...any)
}

// Options configures a walk.
type Options struct {
	BatchSize        int
	ProgressInterval int
	Exclude          []string // absolute paths skipped together with their subtrees
	Matcher          *ignore.Matcher
	Reporter         Reporter
	Logger           *slog.Logger
}

// Stats summarises a finished walk.
type Stats struct {
	Files     int // documents produced
	Skipped   int // files whose metadata could not be read
	DirErrors int // directories that could not be visited
	Bytes     uint64
	Duration  time.Duration

	// Unreadable lists the directories and files counted in DirErrors and Skipped.
	// Whatever is indexed below them was not seen by this walk.
	Unreadable []string
}

// FileDocument builds the index document for a regular file.
func FileDocument(path string, info fs.FileInfo) index.Document {
	return index.Document{
		Path:         path,
		Size:         uint64(max(info.Size(), 0)),
		Created:      creationTime(path, info),
		LastModified: info.ModTime(),
	}
}

// Walk visits root depth-first and sends one document per regular file to sink.
// Directories that cannot be read are counted and skipped; only cancellation of ctx,
// a sink failure or a missing root end the walk early.
func Walk(ctx context.Context, root string, sink Sink, opts Options) (Stats, error) {
	start := time.Now()
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &walker{opts: opts, sink: sink, batch: make([]index.Document, 0, opts.BatchSize)}

	if _, err := os.Lstat(root); err != nil {
		return w.stats, fmt.Errorf("scanning %s: %w", root, err)
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return w.visit(path, d, err)
	})
	if walkErr == nil {
		walkErr = w.flush()
	}

	w.stats.Duration = time.Since(start)
	if walkErr != nil {
		return w.stats, walkErr
	}
	opts.Logger.Debug("scan complete", "root", root, "files", w.stats.Files,
		"skipped", w.stats.Skipped, "dirErrors", w.stats.DirErrors, "elapsed", w.stats.Duration)
	return w.stats, nil
}

type walker struct {
	opts  Options
	sink  Sink
	batch []index.Document
	stats Stats
}

func (w *walker) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		if d != nil && d.IsDir() {
			w.stats.DirErrors++
			w.stats.Unreadable = append(w.stats.Unreadable, path)
			w.opts.Logger.Debug("skipping unreadable directory", "path", path, "error", err)
			return filepath.SkipDir
		}
		w.stats.Skipped++
		w.stats.Unreadable = append(w.stats.Unreadable, path)
		w.opts.Logger.Debug("skipping unreadable entry", "path", path, "error", err)
		return nil
	}

	if d.IsDir() {
		if w.excluded(path) || w.opts.Matcher.ShouldIgnore(path, true) {
			return filepath.SkipDir
		}
		return nil
	}
	if !d.Type().IsRegular() || w.excluded(path) || w.opts.Matcher.ShouldIgnore(path, false) {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		w.stats.Skipped++
		w.stats.Unreadable = append(w.stats.Unreadable, path)
		w.opts.Logger.Debug("skipping file", "path", path, "error", err)
		return nil
	}

	doc := FileDocument(path, info)
	w.batch = append(w.batch, doc)
	w.stats.Files++
	w.stats.Bytes += doc.Size
	if w.stats.Files%w.opts.ProgressInterval == 0 && w.opts.Reporter != nil {
		w.opts.Reporter.Report("scanned %d files under %s", w.stats.Files, filepath.Dir(path))
	}
	if len(w.batch) >= w.opts.BatchSize {
		return w.flush()
	}
	return nil
}

func (w *walker) flush() error {
	if len(w.batch) == 0 {
		return nil
	}
	if err := w.sink(w.batch); err != nil {
		return err
	}
	w.batch = make([]index.Document, 0, w.opts.BatchSize)
	return nil
}

func (w *walker) excluded(path string) bool {
	for _, ex := range w.opts.Exclude {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
