package tools

import (
	"strings"
	"testing"

	"github.com/lexandro/hslindex/service"
	"github.com/lexandro/hslindex/task"
)

// --- FormatSearchResponse ---

func Test_FormatSearchResponse_NoMatches(t *testing.T) {
	got := FormatSearchResponse(service.SearchResponse{})
	if got != "No files matched." {
		t.Errorf("expected 'No files matched.', got '%s'", got)
	}
}

func Test_FormatSearchResponse_AllReturned(t *testing.T) {
	got := FormatSearchResponse(service.SearchResponse{
		TotalResults:    2,
		ReturnedResults: 2,
		Results:         []service.SearchHit{{Path: "/a"}, {Path: "/b"}},
	})
	if got != "Found 2 files:\n\n/a\n/b\n" {
		t.Errorf("unexpected output:\n%s", got)
	}
}

func Test_FormatSearchResponse_Truncated(t *testing.T) {
	got := FormatSearchResponse(service.SearchResponse{
		TotalResults:    40,
		ReturnedResults: 1,
		Results:         []service.SearchHit{{Path: "/a"}},
	})
	if !strings.HasPrefix(got, "Found 40 files, showing 1:") {
		t.Errorf("unexpected header:\n%s", got)
	}
}

// --- FormatTaskStatus ---

func Test_FormatTaskStatus(t *testing.T) {
	got := FormatTaskStatus(service.TaskStatusResponse{TaskID: "t1", State: task.Completed})
	if got != "t1: COMPLETED" {
		t.Errorf("unexpected output: %q", got)
	}

	got = FormatTaskStatus(service.TaskStatusResponse{TaskID: "t2", State: task.Error, Description: "adding /x: permission denied"})
	if got != "t2: ERROR\nadding /x: permission denied" {
		t.Errorf("unexpected output: %q", got)
	}
}
