package server

import (
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/hslindex/tools"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Setup creates the MCP server with every tool registered against backend.
func Setup(backend tools.Backend, startTime time.Time, logger *slog.Logger) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "hslindex",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server keeps persistent indexes of file metadata (path, size, creation time, modification time) and answers HSL queries against them.

Typical flow:
- index_create to create an index, then index_add_directory to fill it (runs in the background)
- task_status to poll the returned task id until COMPLETED
- hsl_search to query; indexes follow filesystem changes automatically`,
		},
	)

	// Register hsl_search tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "hsl_search",
		Description: `Search an index with an HSL query. Returns matching file paths.

Query syntax:
  - Predicates: name = report, size > 10MB, created >= 2024-01-01, last_modified < 2024-06-01T12:00:00Z
  - Symbols: name, size, created, last_modified. Operators: =, >, >=, <, <= (name only supports =)
  - Sizes: integer with optional unit b, kb, mb, gb, tb (1kb = 1024 bytes)
  - Combine with AND / OR (AND binds tighter) and parentheses
  - Sort: ORDER BY size DESC, name ASC`,
	}, (&tools.SearchHandler{Service: backend, Logger: logger}).Handle)

	// Register index_create tool
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "index_create",
		Description: "Create an empty index in a directory. An index already stored there is discarded.",
	}, (&tools.CreateIndexHandler{Service: backend, Logger: logger}).Handle)

	// Register directory tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "index_add_directory",
		Description: "Recursively add a directory to an index. Runs as a background task; returns its id.",
	}, (&tools.DirectoryHandler{Service: backend, Logger: logger}).Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "index_remove_directory",
		Description: "Remove a directory and everything below it from an index. Runs as a background task; returns its id.",
	}, (&tools.DirectoryHandler{Service: backend, Remove: true, Logger: logger}).Handle)

	// Register task tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "task_status",
		Description: "Show the state (NOT_STARTED, RUNNING, COMPLETED, ERROR, INTERRUPTED, NOT_FOUND) and description of a background task.",
	}, (&tools.TaskStatusHandler{Service: backend, Logger: logger}).Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "task_interrupt",
		Description: "Ask a queued or running background task to stop.",
	}, (&tools.TaskInterruptHandler{Service: backend, Logger: logger}).Handle)

	// Register status and sync tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "index_status",
		Description: "Show known indexes with their directories, memory usage and uptime.",
	}, (&tools.StatusHandler{Service: backend, StartTime: startTime, Logger: logger}).Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "index_sync",
		Description: "Rescan every directory of every index, adding missing files and dropping deleted ones. Runs as a background task.",
	}, (&tools.SyncHandler{Service: backend, Logger: logger}).Handle)

	return mcpServer
}
