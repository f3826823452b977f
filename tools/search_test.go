package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/lexandro/hslindex/service"
	"github.com/lexandro/hslindex/settings"
	"github.com/lexandro/hslindex/task"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type fakeService struct {
	err     error
	paths   []string
	total   uint64
	lastMax int
	added   []string
	removed []string
}

func (f *fakeService) CreateIndex(indexPath string) (string, error) {
	return indexPath, f.err
}

func (f *fakeService) AddDirectory(indexPath, dir string) (task.ID, error) {
	if f.err != nil {
		return "", f.err
	}
	f.added = append(f.added, dir)
	return "task-add", nil
}

func (f *fakeService) RemoveDirectory(indexPath, dir string) (task.ID, error) {
	if f.err != nil {
		return "", f.err
	}
	f.removed = append(f.removed, dir)
	return "task-remove", nil
}

func (f *fakeService) Search(_ context.Context, query, indexPath string, max int) (service.SearchResponse, error) {
	f.lastMax = max
	if f.err != nil {
		return service.SearchResponse{}, f.err
	}
	hits := make([]service.SearchHit, len(f.paths))
	for i, p := range f.paths {
		hits[i] = service.SearchHit{Path: p}
	}
	return service.SearchResponse{TotalResults: f.total, ReturnedResults: len(hits), Results: hits}, nil
}

func (f *fakeService) TaskStatus(id task.ID) service.TaskStatusResponse {
	if id == "running" {
		return service.TaskStatusResponse{TaskID: id, State: task.Running, Description: "indexed 500 files"}
	}
	return service.TaskStatusResponse{TaskID: id, State: task.NotFound}
}

func (f *fakeService) InterruptTask(id task.ID) service.InterruptResponse {
	return service.InterruptResponse{Interrupted: id == "running"}
}

func (f *fakeService) Indexes() []settings.IndexEntry {
	return []settings.IndexEntry{
		{Path: "/var/idx/media", Roots: []string{"/mnt/photos", "/mnt/video"}},
		{Path: "/var/idx/empty"},
	}
}

func (f *fakeService) SyncAll() (task.ID, error) {
	if f.err != nil {
		return "", f.err
	}
	return "task-sync", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(result.Content))
	}
	return result.Content[0].(*mcp.TextContent).Text
}

func Test_SearchHandler_MissingArguments(t *testing.T) {
	h := &SearchHandler{Service: &fakeService{}, Logger: testLogger()}

	for _, args := range []SearchArgs{{Index: "/idx"}, {Query: "size > 1"}} {
		result, _, err := h.Handle(context.Background(), nil, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Fatalf("expected IsError=true for %+v", args)
		}
		if text := resultText(t, result); !strings.Contains(text, "required") {
			t.Errorf("expected error message about missing parameters, got: %s", text)
		}
	}
}

func Test_SearchHandler_ListsPaths(t *testing.T) {
	fake := &fakeService{paths: []string{"/data/a.txt", "/data/b.txt"}, total: 7}
	h := &SearchHandler{Service: fake, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "size > 1KB", Index: "/idx", MaxResults: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Found 7 files, showing 2") {
		t.Errorf("expected count header, got:\n%s", text)
	}
	if !strings.Contains(text, "/data/a.txt\n/data/b.txt\n") {
		t.Errorf("expected both paths in order, got:\n%s", text)
	}
	if fake.lastMax != 2 {
		t.Errorf("expected max 2 to be passed through, got %d", fake.lastMax)
	}
}

func Test_SearchHandler_ErrorIsReported(t *testing.T) {
	fake := &fakeService{err: fmt.Errorf("%w: /idx", service.ErrIndexNotFound)}
	h := &SearchHandler{Service: fake, Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, SearchArgs{Query: "size > 1", Index: "/idx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
	if text := resultText(t, result); !strings.Contains(text, "index not found") {
		t.Errorf("expected the service error in the result, got: %s", text)
	}
}

func Test_DirectoryHandler_AddAndRemove(t *testing.T) {
	fake := &fakeService{}
	add := &DirectoryHandler{Service: fake, Logger: testLogger()}
	remove := &DirectoryHandler{Service: fake, Remove: true, Logger: testLogger()}

	result, _, _ := add.Handle(context.Background(), nil, DirectoryArgs{Index: "/idx", Directory: "/data"})
	if result.IsError || !strings.Contains(resultText(t, result), "task-add") {
		t.Errorf("expected add task id, got: %s", resultText(t, result))
	}
	result, _, _ = remove.Handle(context.Background(), nil, DirectoryArgs{Index: "/idx", Directory: "/old"})
	if result.IsError || !strings.Contains(resultText(t, result), "task-remove") {
		t.Errorf("expected remove task id, got: %s", resultText(t, result))
	}
	if len(fake.added) != 1 || fake.added[0] != "/data" || len(fake.removed) != 1 || fake.removed[0] != "/old" {
		t.Errorf("unexpected calls: added=%v removed=%v", fake.added, fake.removed)
	}

	result, _, _ = add.Handle(context.Background(), nil, DirectoryArgs{Index: "/idx"})
	if !result.IsError {
		t.Error("expected IsError=true without a directory")
	}
}

func Test_DirectoryHandler_RejectedSubmission(t *testing.T) {
	fake := &fakeService{err: service.ErrNotSubmitted}
	h := &DirectoryHandler{Service: fake, Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, DirectoryArgs{Index: "/idx", Directory: "/data"})
	if !result.IsError {
		t.Fatal("expected IsError=true")
	}
}

func Test_CreateIndexHandler(t *testing.T) {
	h := &CreateIndexHandler{Service: &fakeService{}, Logger: testLogger()}
	result, _, _ := h.Handle(context.Background(), nil, CreateIndexArgs{Index: "/var/idx"})
	if result.IsError || resultText(t, result) != "created index /var/idx" {
		t.Errorf("unexpected result: %s", resultText(t, result))
	}

	h = &CreateIndexHandler{Service: &fakeService{err: errors.New("read-only filesystem")}, Logger: testLogger()}
	result, _, _ = h.Handle(context.Background(), nil, CreateIndexArgs{Index: "/var/idx"})
	if !result.IsError {
		t.Error("expected IsError=true")
	}
}

func Test_SyncHandler(t *testing.T) {
	h := &SyncHandler{Service: &fakeService{}, Logger: testLogger()}
	result, _, _ := h.Handle(context.Background(), nil, SyncArgs{})
	if result.IsError || !strings.Contains(resultText(t, result), "task-sync") {
		t.Errorf("expected sync task id, got: %s", resultText(t, result))
	}
}
