// Package nodereg provides the ARP NodeType registry: a versioned,
// in-memory catalogue of NodeType definitions with an HTTP API for
// publishing and resolving them.
//
// # Model
//
// A NodeType definition is identified by the pair (node_type_id, version).
// Published definitions are immutable: publishing the same pair twice is a
// conflict regardless of payload. Version strings are opaque; "latest" means
// the lexicographically greatest version string for an id, so publishers
// that want semantic ordering must use a scheme whose string order matches
// (zero-padded components, for example).
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│           HTTP API (api)            │  publish, get, list,
//	│   POST/GET /v1/node-types[...]      │  health, version
//	└─────────────────────────────────────┘
//	           ↓ delegates to
//	┌─────────────────────────────────────┐
//	│        Registry Store (registry)    │  versioned map guarded
//	│   Publish / Get / List              │  by a single RWMutex
//	└─────────────────────────────────────┘
//	           ↓ successful publishes emit
//	┌─────────────────────────────────────┐
//	│        Event Fan-Out (event)        │  NATS announcements,
//	│   natspub + wsbroker sinks          │  WebSocket watch stream
//	└─────────────────────────────────────┘
//
// # Packages
//
// Core:
//   - registry: the versioned NodeType store
//   - api: HTTP API server and request/response types
//   - event: publish events and fan-out to sinks
//   - event/natspub: NATS event announcer
//   - event/wsbroker: WebSocket watch broker
//
// Infrastructure:
//   - config: configuration loading and validation
//   - errors: structured error handling
//   - health: component health aggregation
//   - metric: Prometheus metrics
//
// # Binary
//
// Build and run the registry:
//
//	go build -o bin/nodereg ./cmd/nodereg
//	./bin/nodereg --config configs/example.json
//
// The store holds everything in memory; restarting the process empties the
// registry. Durable persistence belongs to a separate storage service.
package nodereg
