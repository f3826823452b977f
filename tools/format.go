package tools

import (
	"fmt"
	"strings"

	"github.com/lexandro/hslindex/service"
	"github.com/lexandro/hslindex/task"
)

// FormatSearchResponse formats search results as one path per line under a count header.
func FormatSearchResponse(resp service.SearchResponse) string {
	if resp.TotalResults == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	if uint64(resp.ReturnedResults) < resp.TotalResults {
		builder.WriteString(fmt.Sprintf("Found %d files, showing %d:\n\n", resp.TotalResults, resp.ReturnedResults))
	} else {
		builder.WriteString(fmt.Sprintf("Found %d files:\n\n", resp.TotalResults))
	}

	for _, hit := range resp.Results {
		builder.WriteString(hit.Path)
		builder.WriteString("\n")
	}

	return builder.String()
}

// FormatTaskStatus formats a task status as "id: STATE" plus the description.
func FormatTaskStatus(status service.TaskStatusResponse) string {
	if status.State == task.NotFound {
		return fmt.Sprintf("%s: %s (unknown id, or finished too long ago)", status.TaskID, status.State)
	}
	if status.Description == "" {
		return fmt.Sprintf("%s: %s", status.TaskID, status.State)
	}
	return fmt.Sprintf("%s: %s\n%s", status.TaskID, status.State, status.Description)
}
