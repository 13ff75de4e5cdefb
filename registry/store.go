// Package registry implements the in-memory node type store: a keyed
// collection of immutable NodeType records supporting insert-if-absent
// publish, exact and latest-version lookup, and filtered listing.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/errors"
)

// Store holds published node types keyed by (node_type_id, version).
// Records are immutable once published: the store only grows, and keys are
// never updated or deleted for the lifetime of the process.
//
// A single coarse lock mediates all access. Publish performs its
// check-then-insert under the write lock so concurrent publishes of the same
// key see exactly one winner; Get and List read a consistent snapshot under
// the read lock. Expected contention is low, so per-key locking is not worth
// the complexity.
type Store struct {
	mu        sync.RWMutex
	nodeTypes map[Key]NodeType
	versions  map[string][]string // node_type_id -> published versions, insertion order
}

// NewStore creates an empty node type store
func NewStore() *Store {
	return &Store{
		nodeTypes: make(map[Key]NodeType),
		versions:  make(map[string][]string),
	}
}

// Publish inserts a node type if its key is absent and returns the stored
// record unchanged. A publish targeting an existing key always fails with a
// conflict, regardless of payload equality.
func (s *Store) Publish(nt NodeType) (NodeType, error) {
	if err := nt.Validate(); err != nil {
		return NodeType{}, err
	}

	key := nt.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodeTypes[key]; exists {
		return NodeType{}, errors.WrapConflict(
			fmt.Errorf("%w: %s", errors.ErrNodeTypeExists, key),
			"Store", "Publish", "duplicate key check")
	}

	s.nodeTypes[key] = nt
	s.versions[nt.NodeTypeID] = append(s.versions[nt.NodeTypeID], nt.Version)

	return nt, nil
}

// Get retrieves the node type at exactly (nodeTypeID, version). When version
// is empty it resolves the latest version for the identifier: the
// lexicographically greatest version string. The ordering is plain byte-wise
// string comparison, NOT semver-aware ("9.0" sorts after "10.0").
func (s *Store) Get(nodeTypeID, version string) (NodeType, error) {
	if nodeTypeID == "" {
		return NodeType{}, errors.WrapInvalid(
			fmt.Errorf("node_type_id cannot be empty"),
			"Store", "Get", "identity validation")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == "" {
		latest, ok := s.latestVersionLocked(nodeTypeID)
		if !ok {
			return NodeType{}, errors.WrapNotFound(
				fmt.Errorf("%w: %s", errors.ErrNodeTypeNotFound, nodeTypeID),
				"Store", "Get", "latest version lookup")
		}
		version = latest
	}

	key := Key{NodeTypeID: nodeTypeID, Version: version}
	nt, exists := s.nodeTypes[key]
	if !exists {
		return NodeType{}, errors.WrapNotFound(
			fmt.Errorf("%w: %s", errors.ErrNodeTypeNotFound, key),
			"Store", "Get", "exact key lookup")
	}

	return nt, nil
}

// latestVersionLocked returns the lexicographically greatest published
// version for the identifier. Caller must hold at least the read lock.
func (s *Store) latestVersionLocked(nodeTypeID string) (string, bool) {
	versions := s.versions[nodeTypeID]
	if len(versions) == 0 {
		return "", false
	}

	latest := versions[0]
	for _, v := range versions[1:] {
		if v > latest {
			latest = v
		}
	}
	return latest, true
}

// List returns every stored node type matching the filter, sorted by
// (node_type_id, version) for deterministic responses. An empty result is a
// valid outcome, never an error.
func (s *Store) List(filter Filter) []NodeType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]NodeType, 0, len(s.nodeTypes))
	for _, nt := range s.nodeTypes {
		if filter.Matches(nt) {
			out = append(out, nt)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].NodeTypeID != out[j].NodeTypeID {
			return out[i].NodeTypeID < out[j].NodeTypeID
		}
		return out[i].Version < out[j].Version
	})

	return out
}

// Len returns the number of stored node types
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodeTypes)
}
