package api

import "github.com/lexandro/hslindex/task"

// CreateIndexRequest is the body of POST /v1/indexes.
type CreateIndexRequest struct {
	IndexPath string `json:"indexPath" binding:"required"`
}

// CreateIndexResponse carries the canonical path of the created index.
type CreateIndexResponse struct {
	IndexPath string `json:"indexPath"`
}

// DirectoryRequest is the body of the add and remove directory endpoints.
type DirectoryRequest struct {
	IndexPath string `json:"indexPath" binding:"required"`
	Directory string `json:"directory" binding:"required"`
}

// SearchRequest holds the query parameters of GET /v1/search.
type SearchRequest struct {
	Query string `form:"q" binding:"required"`
	Index string `form:"index" binding:"required"`
	Max   int    `form:"max" binding:"gte=0"`
}

// TaskResponse returns the id of a submitted task.
type TaskResponse struct {
	TaskID task.ID `json:"taskId"`
}

// HealthResponse is returned by GET /v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ShutdownResponse acknowledges POST /v1/shutdown.
type ShutdownResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
