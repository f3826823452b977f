package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/lexandro/hslindex/index"
	"github.com/lexandro/hslindex/scan"
	"github.com/lexandro/hslindex/task"
)

// owners returns the indexes that have a root containing path. Paths inside an index's
// own storage directory belong to no index.
func (s *Service) owners(path string) []ownedRoot {
	var owned []ownedRoot
	for _, indexPath := range s.indexPaths() {
		if within(path, indexPath) {
			return nil
		}
	}
	for _, entry := range s.settings.Indexes() {
		for _, root := range entry.Roots {
			if within(path, root) {
				owned = append(owned, ownedRoot{index: entry.Path, root: root})
				break
			}
		}
	}
	return owned
}

type ownedRoot struct {
	index string
	root  string
}

// ShouldIgnore reports whether no index cares about changes to path. That is the case
// inside index storage, outside every root, and where every owning root excludes it.
func (s *Service) ShouldIgnore(path string, isDir bool) bool {
	for _, owner := range s.owners(path) {
		if !s.matcher(owner.root).ShouldIgnore(path, isDir) {
			return false
		}
	}
	return true
}

// AddFileToIndex upserts path into every index whose roots contain it. A directory is
// scanned in a background task, since its contents produced no events of their own.
// It returns the engines that were written to.
func (s *Service) AddFileToIndex(path string) ([]*index.Engine, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var touched []*index.Engine
	var errs []error
	for _, owner := range s.owners(path) {
		if s.matcher(owner.root).ShouldIgnore(path, info.IsDir()) {
			continue
		}
		if info.IsDir() {
			idx, dir := owner.index, path
			_, err := s.submit(fmt.Sprintf("indexing new directory %s in %s", dir, idx), func(ctx context.Context, p *task.Progress) error {
				_, err := s.scanInto(ctx, idx, dir, p)
				return err
			})
			errs = append(errs, err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		engine, err := s.engine(owner.index)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := engine.Upsert(scan.FileDocument(path, info)); err != nil {
			errs = append(errs, err)
			continue
		}
		touched = append(touched, engine)
	}
	return touched, errors.Join(errs...)
}

// RemoveFromIndex deletes path, and everything below it, from every index whose roots
// contain it. It returns the engines that were written to.
func (s *Service) RemoveFromIndex(path string) ([]*index.Engine, error) {
	var touched []*index.Engine
	var errs []error
	for _, owner := range s.owners(path) {
		engine, err := s.engine(owner.index)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := removeTree(engine, path); err != nil {
			errs = append(errs, err)
			continue
		}
		touched = append(touched, engine)
	}
	return touched, errors.Join(errs...)
}

// HandleChange applies a single filesystem change and refreshes the affected indexes.
func (s *Service) HandleChange(path string, kind ChangeKind) error {
	return s.HandleChanges([]Change{{Path: path, Kind: kind}})
}

// HandleChanges applies a batch of filesystem changes in order, then refreshes every
// index that was written to so searches see the batch.
func (s *Service) HandleChanges(changes []Change) error {
	touched := make(map[*index.Engine]bool)
	var errs []error
	for _, change := range changes {
		var engines []*index.Engine
		var err error
		switch change.Kind {
		case ChangeCreated, ChangeSizeChanged, ChangeRenamedTo:
			engines, err = s.AddFileToIndex(change.Path)
		case ChangeDeleted, ChangeRenamedFrom:
			engines, err = s.RemoveFromIndex(change.Path)
		default:
			err = fmt.Errorf("unknown change kind %d for %s", change.Kind, change.Path)
		}
		if err != nil {
			s.logger.Debug("applying change", "path", change.Path, "kind", change.Kind, "error", err)
			errs = append(errs, err)
		}
		for _, engine := range engines {
			touched[engine] = true
		}
	}
	for engine := range touched {
		if err := engine.Refresh(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
