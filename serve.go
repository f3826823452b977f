package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/hslindex/api"
	"github.com/lexandro/hslindex/config"
	"github.com/lexandro/hslindex/server"
	"github.com/lexandro/hslindex/service"
	"github.com/lexandro/hslindex/settings"
	"github.com/lexandro/hslindex/task"
	"github.com/lexandro/hslindex/volume"
	"github.com/lexandro/hslindex/watcher"
)

const httpShutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the index service over HTTP and optionally MCP stdio",
		RunE:  runServe,
	}
	flags := cmd.Flags()
	flags.String("config", "", "TOML configuration file")
	flags.String("listen", "", "HTTP listen address (empty disables HTTP)")
	flags.String("data-dir", "", "Directory holding settings.toml")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	flags.String("log-file", "", "Log file path (default: stderr, or <data-dir>/hslindex.log with --mcp)")
	flags.Bool("mcp", false, "Serve MCP over stdio")
	return cmd
}

// loadServeConfig loads the configuration file named by --config and applies the other
// flags on top of it.
func loadServeConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	applyServeFlags(cmd, &cfg)
	if cfg.MCP && cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "hslindex.log")
	}
	return cfg, cfg.Validate()
}

// applyServeFlags overrides cfg with every flag set explicitly on the command line.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen, _ = flags.GetString("listen")
	}
	if flags.Changed("data-dir") {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("mcp") {
		cfg.MCP, _ = flags.GetBool("mcp")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.LogLevel, cfg.LogFile)
	startTime := time.Now()

	logger.Info("starting hslindex",
		"listen", cfg.Listen,
		"dataDir", cfg.DataDir,
		"mcp", cfg.MCP,
		"workers", cfg.Tasks.Workers,
	)

	store, err := settings.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}

	taskOpts := cfg.TaskOptions()
	taskOpts.Logger = logger
	tasks := task.NewManager(taskOpts)

	svcOpts := cfg.ServiceOptions()
	svcOpts.Logger = logger
	svc := service.New(store, tasks, svcOpts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	// Start file watcher
	if cfg.Watch.Enabled {
		fileWatcher, err := watcher.NewWatcher(svc, cfg.Watch.Debounce.Std(), logger)
		if err != nil {
			logger.Warn("failed to start file watcher, continuing without live updates", "error", err)
		} else {
			defer fileWatcher.Close()
			svc.OnRootsChanged(fileWatcher.Sync)
			fileWatcher.Sync(svc.Roots())
			g.Go(func() error {
				fileWatcher.Run(gctx, svc)
				return nil
			})
		}
	}

	startPeriodicTasks(cfg, svc, tasks, logger)

	if cfg.Listen != "" {
		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		handlers := api.NewHandlers(svc, stop, logger)
		httpServer := &http.Server{
			Addr:              cfg.Listen,
			Handler:           api.NewRouter(handlers, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", cfg.Listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if cfg.MCP {
		mcpServer := server.Setup(svc, startTime, logger)
		g.Go(func() error {
			logger.Info("MCP server starting on stdio")
			err := mcpServer.Run(gctx, &mcp.StdioTransport{})
			// The client closing stdio ends the process.
			stop()
			if err != nil && gctx.Err() == nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	drained := svc.Shutdown()
	logger.Info("hslindex stopped", "drained", drained, "uptime", time.Since(startTime))
	return err
}

// startPeriodicTasks schedules reconciliation and the mount monitor.
func startPeriodicTasks(cfg config.Config, svc *service.Service, tasks *task.Manager, logger *slog.Logger) {
	if interval := cfg.Sync.Interval.Std(); interval > 0 {
		tasks.SubmitPeriodic("reconciling all indexes", svc.ReconcileAll, interval)
		logger.Info("periodic sync started", "interval", interval)
	}

	if interval := cfg.Volumes.PollInterval.Std(); interval > 0 {
		var onMount func(volume.Mount)
		if autoIndex := cfg.Volumes.AutoIndex; autoIndex != "" {
			onMount = func(m volume.Mount) {
				id, err := svc.AddDirectory(autoIndex, m.Mountpoint)
				if err != nil {
					logger.Warn("auto-indexing volume failed", "mountpoint", m.Mountpoint, "index", autoIndex, "error", err)
					return
				}
				logger.Info("auto-indexing volume", "mountpoint", m.Mountpoint, "index", autoIndex, "taskId", id)
			}
		}
		monitor := volume.NewMonitor(volume.SystemMounts, onMount, logger)
		tasks.SubmitPeriodic("polling mounted volumes", monitor.Run, interval)
		logger.Info("volume monitor started", "interval", interval, "autoIndex", cfg.Volumes.AutoIndex)
	}
}
