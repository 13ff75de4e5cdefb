package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/errors"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/registry"
)

// handlePublish inserts a new node type version
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	// Read with limit+1 to detect oversized requests
	bodyReader := io.LimitReader(r.Body, s.config.MaxRequestSize+1)
	body, err := io.ReadAll(bodyReader)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxRequestSize {
		s.writeError(w, http.StatusRequestEntityTooLarge, CodeRequestTooLarge,
			fmt.Sprintf("request body exceeds maximum size of %d bytes", s.config.MaxRequestSize))
		return
	}

	var req PublishRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}

	stored, err := s.store.Publish(req.NodeType)
	if err != nil {
		switch {
		case errors.IsConflict(err):
			if s.metrics != nil {
				s.metrics.RecordPublishConflict()
			}
			key := req.NodeType.Key()
			s.writeError(w, http.StatusConflict, CodeNodeTypeExists,
				fmt.Sprintf("NodeType '%s' already exists", key))
		case errors.IsInvalid(err):
			s.writeError(w, http.StatusBadRequest, CodeInvalidRequest,
				"node_type_id and version are required")
		default:
			s.logger.Error("Publish failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
		}
		return
	}

	if s.metrics != nil {
		s.metrics.RecordPublish(s.store.Len())
	}
	if s.notifier != nil {
		s.notifier.Notify(event.NewPublished(stored))
	}

	s.logger.Info("NodeType published",
		"node_type_id", stored.NodeTypeID, "version", stored.Version, "kind", stored.Kind)

	s.writeJSON(w, http.StatusCreated, stored)
}

// handleGet resolves a node type by id, exact version or latest
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	nodeTypeID := r.PathValue("node_type_id")
	version := r.URL.Query().Get("version")

	nt, err := s.store.Get(nodeTypeID, version)
	if s.metrics != nil {
		s.metrics.RecordGet(err == nil)
	}
	if err != nil {
		switch {
		case errors.IsNotFound(err):
			ref := nodeTypeID
			if version != "" {
				ref = nodeTypeID + "@" + version
			}
			s.writeError(w, http.StatusNotFound, CodeNodeTypeNotFound,
				fmt.Sprintf("NodeType '%s' not found", ref))
		case errors.IsInvalid(err):
			s.writeError(w, http.StatusBadRequest, CodeInvalidRequest, "node_type_id is required")
		default:
			s.logger.Error("Get failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, nt)
}

// handleList returns all node types matching the optional q and kind filters
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter := registry.Filter{
		Q:    r.URL.Query().Get("q"),
		Kind: registry.Kind(r.URL.Query().Get("kind")),
	}

	nodeTypes := s.store.List(filter)
	if s.metrics != nil {
		s.metrics.RecordList()
	}

	s.writeJSON(w, http.StatusOK, ListResponse{NodeTypes: nodeTypes})
}

// handleHealth reports aggregated service health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if s.monitor != nil {
		agg := s.monitor.AggregateHealth(s.config.ServiceName)
		switch {
		case agg.IsUnhealthy():
			status = "unhealthy"
		case agg.IsDegraded():
			status = "degraded"
		}
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: status,
		Time:   time.Now().UTC(),
	})
}

// handleVersion reports service identity and supported API versions
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, VersionResponse{
		ServiceName:          s.config.ServiceName,
		ServiceVersion:       s.config.ServiceVersion,
		SupportedAPIVersions: []string{supportedAPIVersionsV1},
	})
}

// writeJSON writes a JSON response and logs encoding errors
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:  message,
		Code:   code,
		Status: statusCode,
	}); err != nil {
		s.logger.Error("Failed to encode error response", "error", err, "message", message)
	}
}
