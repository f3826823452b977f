package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/lexandro/hslindex/index"
	"github.com/lexandro/hslindex/scan"
	"github.com/lexandro/hslindex/task"
)

// Reconcile rescans root, upserting every file present and deleting indexed documents
// below root that no longer exist on disk. Documents under a path the walk could not
// read are kept.
func (s *Service) Reconcile(ctx context.Context, indexPath, root string, p *task.Progress) (ReconcileResult, error) {
	var result ReconcileResult
	engine, err := s.engine(indexPath)
	if err != nil {
		return result, err
	}

	seen := make(map[string]bool)
	sink := func(docs []index.Document) error {
		for _, doc := range docs {
			seen[doc.Path] = true
		}
		result.Upserted += len(docs)
		return engine.UpsertBatch(docs)
	}
	stats, err := scan.Walk(ctx, root, sink, s.scanOptions(root, p))
	if err != nil {
		return result, err
	}

	indexed, err := engine.IDsWithPrefix(subtreePrefix(root))
	if err != nil {
		return result, err
	}
	for _, id := range indexed {
		if seen[id] {
			continue
		}
		if underAny(id, stats.Unreadable) {
			result.Kept++
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := engine.Delete(id); err != nil {
			return result, err
		}
		result.Removed++
	}

	if err := engine.Refresh(); err != nil {
		return result, err
	}
	return result, nil
}

// underAny reports whether path is one of dirs or lies below one of them.
func underAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path == dir || strings.HasPrefix(path, subtreePrefix(dir)) {
			return true
		}
	}
	return false
}

// ReconcileAll reconciles every root of every known index. Roots that are currently
// missing, such as unmounted volumes, are skipped rather than emptied.
func (s *Service) ReconcileAll(ctx context.Context, p *task.Progress) error {
	start := time.Now()
	var upserted, removed int
	for _, entry := range s.settings.Indexes() {
		for _, root := range entry.Roots {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
				s.logger.Info("sync: root missing, skipped", "index", entry.Path, "root", root)
				continue
			}
			result, err := s.Reconcile(ctx, entry.Path, root, p)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				s.logger.Warn("sync: reconcile failed", "index", entry.Path, "root", root, "error", err)
				continue
			}
			upserted += result.Upserted
			removed += result.Removed
		}
	}

	if removed > 0 {
		s.logger.Info("sync verification complete", "upserted", upserted, "removed", removed, "duration", time.Since(start))
	} else {
		s.logger.Debug("sync verification complete, no stale documents", "upserted", upserted, "duration", time.Since(start))
	}
	p.Report("reconciled %d files, removed %d stale documents", upserted, removed)
	return nil
}

// SyncAll submits a task reconciling every root of every known index.
func (s *Service) SyncAll() (task.ID, error) {
	return s.submit("reconciling all indexes", s.ReconcileAll)
}
