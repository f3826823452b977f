package watcher

import (
	"testing"
	"time"

	"github.com/lexandro/hslindex/service"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []service.Change {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleChange(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/report.pdf", service.ChangeSizeChanged)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 change, got %d", len(batch))
	}
	if batch[0].Path != "/data/report.pdf" {
		t.Errorf("expected path '/data/report.pdf', got '%s'", batch[0].Path)
	}
	if batch[0].Kind != service.ChangeSizeChanged {
		t.Errorf("expected size-changed, got %s", batch[0].Kind)
	}
}

func Test_Debouncer_Collapsing(t *testing.T) {
	d := NewDebouncer(testInterval)

	// Created then removed within the window: only the removal survives
	d.Add("/data/tmp.part", service.ChangeCreated)
	d.Add("/data/tmp.part", service.ChangeDeleted)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 1 {
		t.Fatalf("expected 1 change (collapsed), got %d", len(batch))
	}
	if batch[0].Kind != service.ChangeDeleted {
		t.Errorf("expected latest kind deleted, got %s", batch[0].Kind)
	}
}

func Test_Debouncer_BatchIsSortedByPath(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/c.txt", service.ChangeSizeChanged)
	d.Add("/data/a.txt", service.ChangeCreated)
	d.Add("/data/b.txt", service.ChangeDeleted)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(batch))
	}
	expectedPaths := []string{"/data/a.txt", "/data/b.txt", "/data/c.txt"}
	for i, expected := range expectedPaths {
		if batch[i].Path != expected {
			t.Errorf("change[%d]: expected path '%s', got '%s'", i, expected, batch[i].Path)
		}
	}
}

func Test_Debouncer_TimerReset(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/a.txt", service.ChangeCreated)

	// Wait less than the interval, then add another change, which resets the timer
	time.Sleep(testInterval / 2)
	d.Add("/data/b.txt", service.ChangeCreated)

	batch := receiveBatch(t, d, 500*time.Millisecond)

	if len(batch) != 2 {
		t.Fatalf("expected 2 changes in single batch, got %d", len(batch))
	}
}

func Test_Debouncer_StopDropsPending(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("/data/a.txt", service.ChangeCreated)
	d.Stop()

	select {
	case batch := <-d.Output():
		t.Fatalf("expected no batch after Stop, got %v", batch)
	case <-time.After(3 * testInterval):
	}
}
