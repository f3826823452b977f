package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CreateIndexArgs defines the input parameters for the index_create tool.
type CreateIndexArgs struct {
	Index string `json:"index" jsonschema:"Directory to store the index in. An existing index there is emptied"`
}

// CreateIndexHandler holds the dependencies for the index_create tool.
type CreateIndexHandler struct {
	Service Backend
	Logger  *slog.Logger
}

// Handle processes an index_create request.
func (h *CreateIndexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CreateIndexArgs) (*mcp.CallToolResult, any, error) {
	if args.Index == "" {
		return errorResult("Error: index parameter is required"), nil, nil
	}

	path, err := h.Service.CreateIndex(args.Index)
	if err != nil {
		h.Logger.Warn("index_create failed", "index", args.Index, "error", err)
		return errorResult(fmt.Sprintf("Create error: %v", err)), nil, nil
	}

	h.Logger.Info("index_create", "index", path)
	return textResult(fmt.Sprintf("created index %s", path)), nil, nil
}

// DirectoryArgs defines the input parameters for the add and remove directory tools.
type DirectoryArgs struct {
	Index     string `json:"index" jsonschema:"Path of the index"`
	Directory string `json:"directory" jsonschema:"Directory to add to or remove from the index, recursively"`
}

// DirectoryHandler serves index_add_directory or index_remove_directory, depending on
// Remove. Both submit a background task and return its id.
type DirectoryHandler struct {
	Service Backend
	Remove  bool
	Logger  *slog.Logger
}

func (h *DirectoryHandler) toolName() string {
	if h.Remove {
		return "index_remove_directory"
	}
	return "index_add_directory"
}

// Handle processes the request.
func (h *DirectoryHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args DirectoryArgs) (*mcp.CallToolResult, any, error) {
	name := h.toolName()
	if args.Index == "" || args.Directory == "" {
		h.Logger.Warn(name+" called without index or directory")
		return errorResult("Error: index and directory parameters are required"), nil, nil
	}

	submit := h.Service.AddDirectory
	if h.Remove {
		submit = h.Service.RemoveDirectory
	}
	id, err := submit(args.Index, args.Directory)
	if err != nil {
		h.Logger.Warn(name+" failed", "index", args.Index, "directory", args.Directory, "error", err)
		return errorResult(fmt.Sprintf("Error: %v", err)), nil, nil
	}

	h.Logger.Info(name, "index", args.Index, "directory", args.Directory, "taskId", id)
	return textResult(fmt.Sprintf("task submitted: %s\npoll it with task_status", id)), nil, nil
}
