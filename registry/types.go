package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/errors"
)

// Kind classifies a node type. The store treats it as an opaque tag for
// exact-match filtering; the well-known values are listed for convenience.
type Kind string

// Well-known node kinds
const (
	KindAtomic    Kind = "atomic"
	KindComposite Kind = "composite"
)

// Key uniquely identifies one stored NodeType as the pair (node_type_id, version)
type Key struct {
	NodeTypeID string `json:"node_type_id"`
	Version    string `json:"version"`
}

// String returns the canonical "id@version" rendering of the key
func (k Key) String() string {
	return fmt.Sprintf("%s@%s", k.NodeTypeID, k.Version)
}

// NodeType is a versioned node definition record. The store indexes
// NodeTypeID, Version and Kind; everything else is an uninterpreted payload
// that is stored and returned verbatim.
type NodeType struct {
	// Identity
	NodeTypeID string `json:"node_type_id"`
	Version    string `json:"version"`
	Kind       Kind   `json:"kind"`

	// Descriptive payload (opaque to the store)
	Name         string            `json:"name,omitempty"`
	Description  string            `json:"description,omitempty"`
	InputSchema  json.RawMessage   `json:"input_schema,omitempty"`
	OutputSchema json.RawMessage   `json:"output_schema,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Key returns the registry key for this node type
func (nt NodeType) Key() Key {
	return Key{NodeTypeID: nt.NodeTypeID, Version: nt.Version}
}

// Validate checks that the record carries the fields the store indexes on
func (nt NodeType) Validate() error {
	if nt.NodeTypeID == "" {
		return errors.WrapInvalid(
			fmt.Errorf("node_type_id cannot be empty"),
			"NodeType", "Validate", "identity validation")
	}
	if nt.Version == "" {
		return errors.WrapInvalid(
			fmt.Errorf("version cannot be empty"),
			"NodeType", "Validate", "identity validation")
	}
	return nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	// Q matches as a case-sensitive substring of NodeTypeID or Name
	Q string
	// Kind matches the record's kind exactly
	Kind Kind
}

// Matches reports whether the node type passes the filter
func (f Filter) Matches(nt NodeType) bool {
	if f.Kind != "" && nt.Kind != f.Kind {
		return false
	}
	if f.Q != "" && !containsQuery(nt, f.Q) {
		return false
	}
	return true
}

// containsQuery checks the designated text fields for a substring match.
// Deliberately minimal: no tokenization, no ranking, no case folding.
func containsQuery(nt NodeType, q string) bool {
	return strings.Contains(nt.NodeTypeID, q) || strings.Contains(nt.Name, q)
}
