// Package tools implements the MCP tool handlers over the service.
package tools

import (
	"context"

	"github.com/lexandro/hslindex/service"
	"github.com/lexandro/hslindex/settings"
	"github.com/lexandro/hslindex/task"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Backend is the part of the service the tools call.
type Backend interface {
	CreateIndex(indexPath string) (string, error)
	AddDirectory(indexPath, dir string) (task.ID, error)
	RemoveDirectory(indexPath, dir string) (task.ID, error)
	Search(ctx context.Context, query, indexPath string, max int) (service.SearchResponse, error)
	TaskStatus(id task.ID) service.TaskStatusResponse
	InterruptTask(id task.ID) service.InterruptResponse
	Indexes() []settings.IndexEntry
	SyncAll() (task.ID, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
