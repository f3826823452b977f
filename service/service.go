// Package service ties the query compiler, index engines, scanner and task manager
// together behind the operations exposed to clients.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/lexandro/hslindex/hsl"
	"github.com/lexandro/hslindex/ignore"
	"github.com/lexandro/hslindex/index"
	"github.com/lexandro/hslindex/scan"
	"github.com/lexandro/hslindex/settings"
	"github.com/lexandro/hslindex/task"
)

// DefaultMaxResults is used when a search does not ask for a result count.
const DefaultMaxResults = 10

// Options tunes scanning and searching.
type Options struct {
	ScanBatchSize    int
	ProgressInterval int
	Exclude          []string // glob patterns excluded below every root
	DefaultExcludes  bool
	GitIgnore        bool
	DefaultMax       int
	Logger           *slog.Logger
}

// Service owns one engine per index path and runs every mutation as a background task.
type Service struct {
	settings *settings.Store
	tasks    *task.Manager
	opts     Options
	logger   *slog.Logger

	mu           sync.Mutex
	engines      map[string]*index.Engine
	indexTasks   map[string][]task.ID // mutation tasks submitted per index path
	closed       bool
	rootsChanged func(roots []string)
}

// New creates a service. The task manager is shared with other periodic jobs.
func New(store *settings.Store, tasks *task.Manager, opts Options) *Service {
	if opts.DefaultMax <= 0 {
		opts.DefaultMax = DefaultMaxResults
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		settings: store,
		tasks:    tasks,
		opts:     opts,
		logger:   opts.Logger,
		engines:  make(map[string]*index.Engine),

		indexTasks: make(map[string][]task.ID),
	}
}

// Tasks returns the task manager the service submits to.
func (s *Service) Tasks() *task.Manager {
	return s.tasks
}

// Indexes lists the known indexes and their roots.
func (s *Service) Indexes() []settings.IndexEntry {
	return s.settings.Indexes()
}

// Roots returns every distinct root of every known index, sorted.
func (s *Service) Roots() []string {
	var roots []string
	for _, entry := range s.settings.Indexes() {
		roots = append(roots, entry.Roots...)
	}
	sort.Strings(roots)
	return slices.Compact(roots)
}

// OnRootsChanged registers fn to be called with the full root list whenever a root is
// added or removed.
func (s *Service) OnRootsChanged(fn func(roots []string)) {
	s.mu.Lock()
	s.rootsChanged = fn
	s.mu.Unlock()
}

func (s *Service) notifyRoots() {
	s.mu.Lock()
	fn := s.rootsChanged
	s.mu.Unlock()
	if fn != nil {
		fn(s.Roots())
	}
}

// engine returns the open engine for a canonical index path, opening it on first use.
func (s *Service) engine(indexPath string) (*index.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("service is shut down")
	}
	if engine, ok := s.engines[indexPath]; ok {
		return engine, nil
	}
	if !index.Exists(indexPath) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexPath)
	}
	engine, err := index.OpenForAppend(indexPath)
	if err != nil {
		return nil, err
	}
	s.engines[indexPath] = engine
	return engine, nil
}

// CreateIndex creates an empty index at indexPath, replacing any index already there,
// and returns its canonical path. Add and remove tasks still running against the
// replaced index are interrupted.
func (s *Service) CreateIndex(indexPath string) (string, error) {
	path, err := canonicalPath(indexPath)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", fmt.Errorf("service is shut down")
	}
	for _, id := range s.indexTasks[path] {
		if s.tasks.Interrupt(id) {
			s.logger.Info("interrupted task of replaced index", "path", path, "taskId", id)
		}
	}
	delete(s.indexTasks, path)
	if old, ok := s.engines[path]; ok {
		delete(s.engines, path)
		if err := old.Close(); err != nil {
			s.logger.Warn("closing replaced index", "path", path, "error", err)
		}
	}
	engine, err := index.CreateNew(path)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.engines[path] = engine
	s.mu.Unlock()

	if err := s.settings.ResetIndex(path); err != nil {
		return "", err
	}
	s.notifyRoots()
	s.logger.Info("index created", "path", path)
	return path, nil
}

// existingIndex canonicalises indexPath and checks that an index lives there.
func (s *Service) existingIndex(indexPath string) (string, error) {
	path, err := canonicalPath(indexPath)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	_, open := s.engines[path]
	s.mu.Unlock()
	if !open && !index.Exists(path) {
		return "", fmt.Errorf("%w: %s", ErrIndexNotFound, path)
	}
	return path, nil
}

// AddDirectory submits a task that scans dir into the index and records dir as one of
// its roots once the scan completes.
func (s *Service) AddDirectory(indexPath, dir string) (task.ID, error) {
	idx, err := s.existingIndex(indexPath)
	if err != nil {
		return "", err
	}
	root, err := canonicalPath(dir)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
		}
		return "", fmt.Errorf("checking %s: %w", root, err)
	}

	return s.submitFor(idx, fmt.Sprintf("adding %s to index %s", root, idx), func(ctx context.Context, p *task.Progress) error {
		stats, err := s.scanInto(ctx, idx, root, p)
		if err != nil {
			return err
		}
		if err := s.settings.AddRoot(idx, root); err != nil {
			return err
		}
		s.notifyRoots()
		p.Report("indexed %d files (%s) from %s in %s, %d unreadable directories skipped",
			stats.Files, humanize.IBytes(stats.Bytes), root, stats.Duration.Round(time.Millisecond), stats.DirErrors)
		return nil
	})
}

// scanInto walks root and upserts every file into the index at idx, then refreshes
// the index's read snapshot.
func (s *Service) scanInto(ctx context.Context, idx, root string, p *task.Progress) (scan.Stats, error) {
	engine, err := s.engine(idx)
	if err != nil {
		return scan.Stats{}, err
	}
	stats, walkErr := scan.Walk(ctx, root, engine.UpsertBatch, s.scanOptions(root, p))
	if err := engine.Refresh(); err != nil {
		s.logger.Warn("refreshing index", "path", idx, "error", err)
	}
	return stats, walkErr
}

func (s *Service) scanOptions(root string, p *task.Progress) scan.Options {
	opts := scan.Options{
		BatchSize:        s.opts.ScanBatchSize,
		ProgressInterval: s.opts.ProgressInterval,
		Exclude:          s.indexPaths(),
		Matcher:          s.matcher(root),
		Logger:           s.logger,
	}
	if p != nil {
		opts.Reporter = p
	}
	return opts
}

func (s *Service) matcher(root string) *ignore.Matcher {
	if len(s.opts.Exclude) == 0 && !s.opts.DefaultExcludes && !s.opts.GitIgnore {
		return nil
	}
	return ignore.NewMatcher(ignore.MatcherOptions{
		RootDir:   root,
		Patterns:  s.opts.Exclude,
		Defaults:  s.opts.DefaultExcludes,
		GitIgnore: s.opts.GitIgnore,
	})
}

// indexPaths returns every index storage directory, which scans never descend into.
func (s *Service) indexPaths() []string {
	seen := make(map[string]bool)
	s.mu.Lock()
	for path := range s.engines {
		seen[path] = true
	}
	s.mu.Unlock()
	for _, entry := range s.settings.Indexes() {
		seen[entry.Path] = true
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// RemoveDirectory submits a task that deletes dir and everything below it from the index
// and forgets dir as a root. The directory does not need to exist any more.
func (s *Service) RemoveDirectory(indexPath, dir string) (task.ID, error) {
	idx, err := s.existingIndex(indexPath)
	if err != nil {
		return "", err
	}
	root, err := canonicalPath(dir)
	if err != nil {
		return "", err
	}

	return s.submitFor(idx, fmt.Sprintf("removing %s from index %s", root, idx), func(ctx context.Context, p *task.Progress) error {
		engine, err := s.engine(idx)
		if err != nil {
			return err
		}
		removed, err := removeTree(engine, root)
		if refreshErr := engine.Refresh(); refreshErr != nil {
			s.logger.Warn("refreshing index", "path", idx, "error", refreshErr)
		}
		if err != nil {
			return err
		}
		if err := s.settings.RemoveRoot(idx, root); err != nil {
			return err
		}
		s.notifyRoots()
		p.Report("removed %d documents under %s", removed, root)
		return nil
	})
}

// removeTree deletes path itself and every document below it.
func removeTree(engine *index.Engine, path string) (int, error) {
	removed, err := engine.DeleteByPrefix(subtreePrefix(path))
	if err != nil {
		return removed, err
	}
	if err := engine.Delete(path); err != nil {
		return removed, err
	}
	return removed, nil
}

// submitFor submits a task mutating the index at idx so that CreateIndex can interrupt
// it. Once interrupted, failures caused by the replaced engine closing report as
// interruption.
func (s *Service) submitFor(idx, description string, fn task.Func) (task.ID, error) {
	id, err := s.submit(description, func(ctx context.Context, p *task.Progress) error {
		err := fn(ctx, p)
		if err != nil && ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return err
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	live := s.indexTasks[idx][:0]
	for _, other := range s.indexTasks[idx] {
		if state := s.tasks.Status(other).State; !state.Terminal() && state != task.NotFound {
			live = append(live, other)
		}
	}
	s.indexTasks[idx] = append(live, id)
	s.mu.Unlock()
	return id, nil
}

func (s *Service) submit(description string, fn task.Func) (task.ID, error) {
	id, ok := s.tasks.Submit(description, fn)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotSubmitted, description)
	}
	s.logger.Info("task submitted", "taskId", id, "description", description)
	return id, nil
}

// Search compiles query and runs it against the index at indexPath. A non-positive max
// falls back to the configured default.
func (s *Service) Search(ctx context.Context, query, indexPath string, max int) (SearchResponse, error) {
	compiled, err := hsl.Parse(query)
	if err != nil {
		return SearchResponse{}, err
	}
	idx, err := s.existingIndex(indexPath)
	if err != nil {
		return SearchResponse{}, err
	}
	engine, err := s.engine(idx)
	if err != nil {
		return SearchResponse{}, err
	}
	if max <= 0 {
		max = s.opts.DefaultMax
	}

	result, err := engine.Query(ctx, compiled, max)
	if err != nil {
		return SearchResponse{}, err
	}

	hits := make([]SearchHit, len(result.Paths))
	for i, path := range result.Paths {
		hits[i] = SearchHit{Path: path}
	}
	s.logger.Debug("search", "index", idx, "query", query, "total", result.Total, "returned", len(hits))
	return SearchResponse{
		TotalResults:    result.Total,
		ReturnedResults: len(hits),
		Results:         hits,
	}, nil
}

// TaskStatus reports the status of a task.
func (s *Service) TaskStatus(id task.ID) TaskStatusResponse {
	status := s.tasks.Status(id)
	return TaskStatusResponse{TaskID: id, State: status.State, Description: status.Description}
}

// InterruptTask asks a task to stop.
func (s *Service) InterruptTask(id task.ID) InterruptResponse {
	return InterruptResponse{Interrupted: s.tasks.Interrupt(id)}
}

// Shutdown stops the task manager, waiting for running tasks up to its bound, then
// closes every engine. It returns whether all tasks finished in time.
func (s *Service) Shutdown() bool {
	drained := s.tasks.ShutdownAndAwait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return drained
	}
	s.closed = true
	for path, engine := range s.engines {
		if err := engine.Close(); err != nil {
			s.logger.Warn("closing index", "path", path, "error", err)
		}
	}
	s.engines = map[string]*index.Engine{}
	s.logger.Info("service stopped", "drained", drained)
	return drained
}
