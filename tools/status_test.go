package tools

import (
	"context"
	"strings"
	"testing"
	"time"
)

// --- formatDuration ---

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_1m0s", 60 * time.Second, "1m0s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

// --- StatusHandler ---

func Test_StatusHandler_ListsIndexesAndRoots(t *testing.T) {
	h := &StatusHandler{Service: &fakeService{}, StartTime: time.Now(), Logger: testLogger()}

	result, _, err := h.Handle(context.Background(), nil, StatusArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)

	for _, want := range []string{"Indexes: 2", "/var/idx/media\n  /mnt/photos\n  /mnt/video\n", "/var/idx/empty\n  (no directories)", "Uptime: 0s", "Memory usage:"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected status to contain %q, got:\n%s", want, text)
		}
	}
}

// --- task tools ---

func Test_TaskStatusHandler(t *testing.T) {
	h := &TaskStatusHandler{Service: &fakeService{}, Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, TaskArgs{TaskID: "running"})
	if got := resultText(t, result); got != "running: RUNNING\nindexed 500 files" {
		t.Errorf("unexpected status text: %q", got)
	}

	result, _, _ = h.Handle(context.Background(), nil, TaskArgs{TaskID: "gone"})
	if result.IsError {
		t.Error("an unknown id is a status, not an error")
	}
	if got := resultText(t, result); !strings.HasPrefix(got, "gone: NOT_FOUND") {
		t.Errorf("unexpected status text: %q", got)
	}

	result, _, _ = h.Handle(context.Background(), nil, TaskArgs{})
	if !result.IsError {
		t.Error("expected IsError=true without a task id")
	}
}

func Test_TaskInterruptHandler(t *testing.T) {
	h := &TaskInterruptHandler{Service: &fakeService{}, Logger: testLogger()}

	result, _, _ := h.Handle(context.Background(), nil, TaskArgs{TaskID: "running"})
	if got := resultText(t, result); !strings.Contains(got, "interrupt requested") {
		t.Errorf("unexpected text: %q", got)
	}

	result, _, _ = h.Handle(context.Background(), nil, TaskArgs{TaskID: "gone"})
	if got := resultText(t, result); !strings.Contains(got, "nothing to interrupt") {
		t.Errorf("unexpected text: %q", got)
	}
}
