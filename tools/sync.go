package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SyncArgs defines the input parameters for the index_sync tool.
type SyncArgs struct{}

// SyncHandler holds the dependencies for the index_sync tool.
type SyncHandler struct {
	Service Backend
	Logger  *slog.Logger
}

// Handle submits a reconciliation of every root of every index.
func (h *SyncHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SyncArgs) (*mcp.CallToolResult, any, error) {
	id, err := h.Service.SyncAll()
	if err != nil {
		h.Logger.Error("index_sync failed", "error", err)
		return errorResult(fmt.Sprintf("Sync error: %v", err)), nil, nil
	}

	h.Logger.Info("index_sync submitted", "taskId", id)
	return textResult(fmt.Sprintf("task submitted: %s\npoll it with task_status", id)), nil, nil
}
