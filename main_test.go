package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lexandro/hslindex/config"
)

func Test_SetupLogger_WritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "hslindex.log")

	logger := setupLogger("debug", logFile)
	logger.Debug("hello from test", "key", "value")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "hello from test") {
		t.Errorf("log file missing message, got: %s", data)
	}
}

func Test_SetupLogger_LevelFiltering(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "hslindex.log")

	logger := setupLogger("warn", logFile)
	logger.Info("quiet")
	logger.Warn("loud")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if strings.Contains(string(data), "quiet") {
		t.Errorf("info message should be filtered at warn level")
	}
	if !strings.Contains(string(data), "loud") {
		t.Errorf("warn message missing")
	}
}

func Test_ApplyServeFlags_OnlyChangedFlags(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{"--listen", ":9000", "--mcp"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	cfg := config.Default()
	cfg.LogLevel = "debug"
	applyServeFlags(cmd, &cfg)

	if cfg.Listen != ":9000" {
		t.Errorf("expected listen :9000, got %q", cfg.Listen)
	}
	if !cfg.MCP {
		t.Errorf("expected mcp to be enabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unset flag overrode log level: %q", cfg.LogLevel)
	}
}

func Test_LoadServeConfig_MCPDefaultsLogFile(t *testing.T) {
	dataDir := t.TempDir()
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{"--data-dir", dataDir, "--mcp"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	want := filepath.Join(dataDir, "hslindex.log")
	if cfg.LogFile != want {
		t.Errorf("expected log file %s, got %s", want, cfg.LogFile)
	}
}

func Test_LoadServeConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hslindex.toml")
	content := "listen = \"127.0.0.1:8080\"\n\n[search]\ndefault_max = 25\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{"--config", path}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.Search.DefaultMax != 25 {
		t.Errorf("config file not applied: listen=%q default_max=%d", cfg.Listen, cfg.Search.DefaultMax)
	}
}

func Test_QueryCommand_RequiresIndex(t *testing.T) {
	cmd := newQueryCmd()
	cmd.SetArgs([]string{"size > 1kb"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without --index")
	}
}
