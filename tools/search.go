package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the hsl_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"HSL query, e.g. size > 10MB AND name = report ORDER BY last_modified DESC"`
	Index      string `json:"index" jsonschema:"Path of the index to search"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of paths to return (default 10)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Service Backend
	Logger  *slog.Logger
}

// Handle processes a hsl_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Query == "" || args.Index == "" {
		h.Logger.Warn("hsl_search called without query or index")
		return errorResult("Error: query and index parameters are required"), nil, nil
	}

	resp, err := h.Service.Search(ctx, args.Query, args.Index, args.MaxResults)
	if err != nil {
		h.Logger.Warn("hsl_search failed", "query", args.Query, "index", args.Index, "error", err)
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	h.Logger.Info("hsl_search",
		"query", args.Query,
		"index", args.Index,
		"total", resp.TotalResults,
		"returned", resp.ReturnedResults,
		"elapsed", time.Since(start),
	)

	return textResult(FormatSearchResponse(resp)), nil, nil
}
