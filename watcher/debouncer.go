package watcher

import (
	"sort"
	"sync"
	"time"

	"github.com/lexandro/hslindex/service"
)

// DefaultInterval is the quiet period after which collected changes are delivered.
const DefaultInterval = 100 * time.Millisecond

// Debouncer collects changes and emits them as one batch after a quiet period.
// Multiple changes to the same path within the window collapse into the latest one.
type Debouncer struct {
	interval time.Duration
	changes  map[string]service.ChangeKind
	mu       sync.Mutex
	timer    *time.Timer
	output   chan []service.Change
}

// NewDebouncer creates a debouncer with the specified quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{
		interval: interval,
		changes:  make(map[string]service.ChangeKind),
		output:   make(chan []service.Change, 16),
	}
}

// Output returns the channel that receives batches, sorted by path.
func (d *Debouncer) Output() <-chan []service.Change {
	return d.output
}

// Add records a change. An earlier change to the same path is replaced.
func (d *Debouncer) Add(path string, kind service.ChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.changes[path] = kind

	// Reset the timer each time a new change arrives
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.flush)
}

// Stop cancels a pending flush. Changes not yet delivered are dropped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.changes = make(map[string]service.ChangeKind)
}

// flush sends the accumulated changes to the output channel and resets the buffer.
func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.changes) == 0 {
		return
	}

	batch := make([]service.Change, 0, len(d.changes))
	for path, kind := range d.changes {
		batch = append(batch, service.Change{Path: path, Kind: kind})
	}
	sort.Slice(batch, func(i, j int) bool {
		return batch[i].Path < batch[j].Path
	})

	d.changes = make(map[string]service.ChangeKind)
	d.output <- batch
}
