// Package volume watches the set of mounted filesystems so newly attached volumes can be
// indexed.
package volume

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/lexandro/hslindex/task"
)

// Mount is one mounted filesystem.
type Mount struct {
	Device     string
	Mountpoint string
	FSType     string
	ReadOnly   bool
}

// Lister returns the currently mounted filesystems.
type Lister func(ctx context.Context) ([]Mount, error)

// SystemMounts lists real (non-pseudo) filesystems through gopsutil.
func SystemMounts(ctx context.Context) ([]Mount, error) {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	mounts := make([]Mount, 0, len(parts))
	for _, p := range parts {
		if isPseudoFS(p) {
			continue
		}
		mounts = append(mounts, Mount{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			FSType:     p.Fstype,
			ReadOnly:   hasReadOnlyOpt(p.Opts),
		})
	}
	return mounts, nil
}

func isPseudoFS(p disk.PartitionStat) bool {
	if strings.HasPrefix(p.Device, "/dev/") {
		return false
	}
	switch p.Fstype {
	case "proc", "sysfs", "devtmpfs", "devpts",
		"tmpfs", "cgroup", "cgroup2", "pstore",
		"securityfs", "debugfs", "tracefs",
		"configfs", "overlay", "squashfs", "ramfs",
		"bpf", "nsfs", "autofs", "fusectl", "mqueue",
		"hugetlbfs", "binfmt_misc":
		return true
	}
	return false
}

func hasReadOnlyOpt(opts []string) bool {
	for _, o := range opts {
		if strings.TrimSpace(o) == "ro" {
			return true
		}
	}
	return false
}

// Monitor remembers the mount points seen by the previous poll and reports differences.
type Monitor struct {
	list    Lister
	onMount func(Mount)
	logger  *slog.Logger

	mu     sync.Mutex
	known  map[string]Mount
	primed bool
}

// NewMonitor creates a monitor. onMount, if set, is called for every mount point that
// appears after the first poll.
func NewMonitor(list Lister, onMount func(Mount), logger *slog.Logger) *Monitor {
	if list == nil {
		list = SystemMounts
	}
	return &Monitor{
		list:    list,
		onMount: onMount,
		logger:  logger,
		known:   make(map[string]Mount),
	}
}

// Poll lists mounts and returns those that appeared and disappeared since the last
// poll, sorted by mount point. The first poll only records the current state.
func (m *Monitor) Poll(ctx context.Context) (added, removed []Mount, err error) {
	mounts, err := m.list(ctx)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	current := make(map[string]Mount, len(mounts))
	for _, mount := range mounts {
		current[mount.Mountpoint] = mount
		if _, ok := m.known[mount.Mountpoint]; !ok && m.primed {
			added = append(added, mount)
		}
	}
	for point, mount := range m.known {
		if _, ok := current[point]; !ok {
			removed = append(removed, mount)
		}
	}
	m.known = current
	m.primed = true
	m.mu.Unlock()

	sortMounts(added)
	sortMounts(removed)
	return added, removed, nil
}

func sortMounts(mounts []Mount) {
	sort.Slice(mounts, func(i, j int) bool { return mounts[i].Mountpoint < mounts[j].Mountpoint })
}

// Run is a task.Func performing one poll. It is meant for task.Manager.SubmitPeriodic.
func (m *Monitor) Run(ctx context.Context, p *task.Progress) error {
	added, removed, err := m.Poll(ctx)
	if err != nil {
		return err
	}
	for _, mount := range added {
		m.logger.Info("volume mounted", "mountpoint", mount.Mountpoint, "device", mount.Device, "fstype", mount.FSType)
		if m.onMount != nil {
			m.onMount(mount)
		}
	}
	for _, mount := range removed {
		m.logger.Info("volume unmounted", "mountpoint", mount.Mountpoint, "device", mount.Device)
	}
	p.Report("%d volumes mounted, %d unmounted", len(added), len(removed))
	return nil
}
