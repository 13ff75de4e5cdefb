package api

import (
	"time"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/registry"
)

// Error codes returned in error response bodies
const (
	CodeInvalidRequest     = "invalid_request"
	CodeNodeTypeExists     = "node_type_already_exists"
	CodeNodeTypeNotFound   = "node_type_not_found"
	CodeInternalError      = "internal_error"
	CodeRouteNotFound      = "route_not_found"
	CodeRequestTooLarge    = "request_too_large"
	supportedAPIVersionsV1 = "v1"
)

// PublishRequest wraps the node type payload for POST /v1/node-types
type PublishRequest struct {
	NodeType registry.NodeType `json:"node_type"`
}

// ListResponse wraps the list result for GET /v1/node-types
type ListResponse struct {
	NodeTypes []registry.NodeType `json:"node_types"`
}

// HealthResponse is the body of GET /v1/health
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// VersionResponse is the body of GET /v1/version
type VersionResponse struct {
	ServiceName          string   `json:"service_name"`
	ServiceVersion       string   `json:"service_version"`
	SupportedAPIVersions []string `json:"supported_api_versions"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Status int    `json:"status"`
}
