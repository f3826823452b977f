// Package config holds the runtime configuration: built-in defaults, overlaid by an
// optional TOML file, overlaid by command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/lexandro/hslindex/scan"
	"github.com/lexandro/hslindex/service"
	"github.com/lexandro/hslindex/task"
	"github.com/lexandro/hslindex/watcher"
)

// Duration is a time.Duration written as "30s" or "5m" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Listen   string `toml:"listen"`
	DataDir  string `toml:"data_dir"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
	MCP      bool   `toml:"mcp"`

	Tasks   TasksConfig   `toml:"tasks"`
	Scan    ScanConfig    `toml:"scan"`
	Sync    SyncConfig    `toml:"sync"`
	Watch   WatchConfig   `toml:"watch"`
	Volumes VolumesConfig `toml:"volumes"`
	Search  SearchConfig  `toml:"search"`
}

type TasksConfig struct {
	Workers          int      `toml:"workers"`
	QueueSize        int      `toml:"queue_size"`
	FinishedCapacity int      `toml:"finished_capacity"`
	ShutdownTimeout  Duration `toml:"shutdown_timeout"`
}

type ScanConfig struct {
	BatchSize        int      `toml:"batch_size"`
	ProgressInterval int      `toml:"progress_interval"`
	Exclude          []string `toml:"exclude"`
	DefaultExcludes  bool     `toml:"default_excludes"`
	GitIgnore        bool     `toml:"gitignore"`
}

// SyncConfig controls the periodic reconciliation of every root. Zero disables it.
type SyncConfig struct {
	Interval Duration `toml:"interval"`
}

type WatchConfig struct {
	Enabled  bool     `toml:"enabled"`
	Debounce Duration `toml:"debounce"`
}

// VolumesConfig controls the mount monitor. A zero poll interval disables it; a
// non-empty AutoIndex adds every newly mounted volume to that index.
type VolumesConfig struct {
	PollInterval Duration `toml:"poll_interval"`
	AutoIndex    string   `toml:"auto_index"`
}

type SearchConfig struct {
	DefaultMax int `toml:"default_max"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:   "127.0.0.1:7474",
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Tasks: TasksConfig{
			Workers:          task.DefaultWorkers,
			QueueSize:        task.DefaultQueueSize,
			FinishedCapacity: task.DefaultFinishedCapacity,
			ShutdownTimeout:  Duration(task.DefaultShutdownTimeout),
		},
		Scan: ScanConfig{
			BatchSize:        scan.DefaultBatchSize,
			ProgressInterval: scan.DefaultProgressInterval,
		},
		Sync: SyncConfig{Interval: Duration(time.Hour)},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: Duration(watcher.DefaultInterval),
		},
		Volumes: VolumesConfig{PollInterval: Duration(30 * time.Second)},
		Search:  SearchConfig{DefaultMax: service.DefaultMaxResults},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hslindex"
	}
	return filepath.Join(home, ".hslindex")
}

// Load returns the defaults overlaid with the TOML file at path. An empty path returns
// the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values no default can repair.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.Listen == "" && !c.MCP {
		errs = append(errs, errors.New("listen must be set unless mcp is enabled"))
	}
	if c.Tasks.Workers < 0 || c.Tasks.QueueSize < 0 || c.Tasks.FinishedCapacity < 0 {
		errs = append(errs, errors.New("tasks settings must not be negative"))
	}
	if c.Sync.Interval < 0 || c.Volumes.PollInterval < 0 || c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("intervals must not be negative"))
	}
	if c.Search.DefaultMax < 0 {
		errs = append(errs, errors.New("search.default_max must not be negative"))
	}
	return errors.Join(errs...)
}

// TaskOptions maps the tasks section onto task manager options.
func (c Config) TaskOptions() task.Options {
	return task.Options{
		Workers:          c.Tasks.Workers,
		QueueSize:        c.Tasks.QueueSize,
		FinishedCapacity: c.Tasks.FinishedCapacity,
		ShutdownTimeout:  c.Tasks.ShutdownTimeout.Std(),
	}
}

// ServiceOptions maps the scan and search sections onto service options.
func (c Config) ServiceOptions() service.Options {
	return service.Options{
		ScanBatchSize:    c.Scan.BatchSize,
		ProgressInterval: c.Scan.ProgressInterval,
		Exclude:          c.Scan.Exclude,
		DefaultExcludes:  c.Scan.DefaultExcludes,
		GitIgnore:        c.Scan.GitIgnore,
		DefaultMax:       c.Search.DefaultMax,
	}
}
