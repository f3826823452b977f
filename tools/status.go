package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/hslindex/task"
)

// TaskArgs defines the input parameters for the task_status and task_interrupt tools.
type TaskArgs struct {
	TaskID string `json:"taskId" jsonschema:"Id returned when the task was submitted"`
}

// TaskStatusHandler holds the dependencies for the task_status tool.
type TaskStatusHandler struct {
	Service Backend
	Logger  *slog.Logger
}

// Handle processes a task_status request. Unknown ids are reported as NOT_FOUND, not as errors.
func (h *TaskStatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args TaskArgs) (*mcp.CallToolResult, any, error) {
	if args.TaskID == "" {
		return errorResult("Error: taskId parameter is required"), nil, nil
	}
	status := h.Service.TaskStatus(task.ID(args.TaskID))
	h.Logger.Debug("task_status", "taskId", args.TaskID, "state", status.State)
	return textResult(FormatTaskStatus(status)), nil, nil
}

// TaskInterruptHandler holds the dependencies for the task_interrupt tool.
type TaskInterruptHandler struct {
	Service Backend
	Logger  *slog.Logger
}

// Handle processes a task_interrupt request.
func (h *TaskInterruptHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args TaskArgs) (*mcp.CallToolResult, any, error) {
	if args.TaskID == "" {
		return errorResult("Error: taskId parameter is required"), nil, nil
	}
	resp := h.Service.InterruptTask(task.ID(args.TaskID))
	h.Logger.Info("task_interrupt", "taskId", args.TaskID, "delivered", resp.Interrupted)
	if !resp.Interrupted {
		return textResult(fmt.Sprintf("task %s is not queued or running, nothing to interrupt", args.TaskID)), nil, nil
	}
	return textResult(fmt.Sprintf("interrupt requested for task %s", args.TaskID)), nil, nil
}

// StatusArgs defines the input parameters for the index_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the index_status tool.
type StatusHandler struct {
	Service   Backend
	StartTime time.Time
	Logger    *slog.Logger
}

// Handle processes an index_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	indexes := h.Service.Indexes()
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("index_status", "indexes", len(indexes), "memory", memStats.Alloc, "uptime", uptime)

	builder.WriteString("=== hslindex Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		humanize.IBytes(memStats.Alloc),
		humanize.IBytes(memStats.HeapAlloc),
	))
	builder.WriteString(fmt.Sprintf("Indexes: %d\n", len(indexes)))

	for _, entry := range indexes {
		builder.WriteString(fmt.Sprintf("\n%s\n", entry.Path))
		if len(entry.Roots) == 0 {
			builder.WriteString("  (no directories)\n")
		}
		for _, root := range entry.Roots {
			builder.WriteString(fmt.Sprintf("  %s\n", root))
		}
	}

	return textResult(builder.String()), nil, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}
