package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexandro/hslindex/register"
)

var rootCmd = &cobra.Command{
	Use:           "hslindex",
	Short:         "File metadata index with an HSL query language",
	Long:          `hslindex keeps persistent indexes of file paths, sizes and timestamps, and answers HSL queries over HTTP, MCP stdio or the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var registerCmd = &cobra.Command{
	Use:   "register project|user [directory] [-- serve-args]",
	Short: "Register hslindex as an MCP server for a project or the current user",
	// Flags after "--" belong to the registered server, not to this command.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return register.Run(register.DeriveServerName(os.Args[0]), args)
	},
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(registerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger creates an slog.Logger writing to stderr or a file.
// It never writes to stdout, which carries the MCP stdio transport.
func setupLogger(level string, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn", "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var writer *os.File
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot create log directory for %s: %v\n", logFile, err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v, falling back to stderr\n", logFile, err)
			writer = os.Stderr
		} else {
			writer = f
		}
	} else {
		writer = os.Stderr
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
