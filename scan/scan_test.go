package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/lexandro/hslindex/ignore"
	"github.com/lexandro/hslindex/index"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type collector struct {
	batches [][]index.Document
}

func (c *collector) sink(docs []index.Document) error {
	c.batches = append(c.batches, append([]index.Document(nil), docs...))
	return nil
}

func (c *collector) paths() []string {
	var paths []string
	for _, batch := range c.batches {
		for _, doc := range batch {
			paths = append(paths, doc.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

type recordingReporter struct {
	messages []string
}

func (r *recordingReporter) Report(format string, args ...any) {
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func Test_Walk_IndexesRegularFilesInBatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 10)
	writeFile(t, filepath.Join(root, "sub", "b.txt"), 20)
	writeFile(t, filepath.Join(root, "sub", "deeper", "c.txt"), 30)
	os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt"))

	c := &collector{}
	stats, err := Walk(context.Background(), root, c.sink, Options{BatchSize: 2, Logger: testLogger()})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	want := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub", "b.txt"),
		filepath.Join(root, "sub", "deeper", "c.txt"),
	}
	if got := c.paths(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(c.batches) != 2 {
		t.Errorf("expected 2 batches, got %d", len(c.batches))
	}
	if stats.Files != 3 || stats.Bytes != 60 {
		t.Errorf("unexpected stats %+v", stats)
	}
	for _, batch := range c.batches {
		for _, doc := range batch {
			if doc.LastModified.IsZero() || doc.Created.IsZero() {
				t.Errorf("expected timestamps on %s", doc.Path)
			}
		}
	}
}

func Test_Walk_SingleFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "only.bin")
	writeFile(t, file, 5)

	c := &collector{}
	stats, err := Walk(context.Background(), file, c.sink, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if stats.Files != 1 || c.paths()[0] != file {
		t.Errorf("expected exactly %s, got %v", file, c.paths())
	}
}

func Test_Walk_MissingRoot(t *testing.T) {
	c := &collector{}
	_, err := Walk(context.Background(), filepath.Join(t.TempDir(), "nope"), c.sink, Options{Logger: testLogger()})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func Test_Walk_UnreadableDirectoryIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "readable", "ok.txt"), 1)
	writeFile(t, filepath.Join(root, "locked", "hidden.txt"), 1)
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0o755)

	c := &collector{}
	stats, err := Walk(context.Background(), root, c.sink, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("expected walk to complete, got %v", err)
	}
	if got := c.paths(); len(got) != 1 || got[0] != filepath.Join(root, "readable", "ok.txt") {
		t.Errorf("expected only the readable sibling, got %v", got)
	}
	if stats.DirErrors != 1 {
		t.Errorf("expected 1 directory error, got %d", stats.DirErrors)
	}
	if len(stats.Unreadable) != 1 || stats.Unreadable[0] != locked {
		t.Errorf("expected %s reported as unreadable, got %v", locked, stats.Unreadable)
	}
}

func Test_Walk_SkipsExcludedAndIgnored(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), 1)
	writeFile(t, filepath.Join(root, ".hslindex", "store.zap"), 1)
	writeFile(t, filepath.Join(root, "build", "out.o"), 1)
	writeFile(t, filepath.Join(root, "notes.tmp"), 1)

	c := &collector{}
	_, err := Walk(context.Background(), root, c.sink, Options{
		Exclude: []string{filepath.Join(root, ".hslindex")},
		Matcher: ignore.NewMatcher(ignore.MatcherOptions{RootDir: root, Patterns: []string{"build", "*.tmp"}}),
		Logger:  testLogger(),
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if got := c.paths(); len(got) != 1 || got[0] != filepath.Join(root, "keep.txt") {
		t.Errorf("expected only keep.txt, got %v", got)
	}
}

func Test_Walk_ReportsProgress(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, fmt.Sprintf("f%d", i)), 1)
	}

	reporter := &recordingReporter{}
	c := &collector{}
	_, err := Walk(context.Background(), root, c.sink, Options{ProgressInterval: 2, Reporter: reporter, Logger: testLogger()})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}
	if len(reporter.messages) != 2 {
		t.Errorf("expected 2 progress reports, got %v", reporter.messages)
	}
}

func Test_Walk_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &collector{}
	_, err := Walk(ctx, root, c.sink, Options{Logger: testLogger()})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(c.paths()) != 0 {
		t.Errorf("expected no documents after cancellation, got %v", c.paths())
	}
}

func Test_Walk_SinkErrorAborts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 1)
	boom := errors.New("sink down")

	_, err := Walk(context.Background(), root, func([]index.Document) error { return boom }, Options{Logger: testLogger()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}
