// Package event defines the publish events the registry fans out to
// interested consumers. The store itself stays free of side effects; the API
// layer emits an event after a publish succeeds.
package event

import (
	"time"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/registry"
)

// TypePublished is the event type emitted on a successful publish
const TypePublished = "node_type.published"

// Event describes a registry state change
type Event struct {
	Type       string        `json:"type"`
	NodeTypeID string        `json:"node_type_id"`
	Version    string        `json:"version"`
	Kind       registry.Kind `json:"kind"`
	Time       time.Time     `json:"time"`
}

// NewPublished creates a published event for a stored node type
func NewPublished(nt registry.NodeType) Event {
	return Event{
		Type:       TypePublished,
		NodeTypeID: nt.NodeTypeID,
		Version:    nt.Version,
		Kind:       nt.Kind,
		Time:       time.Now().UTC(),
	}
}

// Notifier receives registry events. Implementations must not block the
// caller; delivery is best-effort and failures stay local to the sink.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ev Event)

// Notify implements Notifier
func (f NotifierFunc) Notify(ev Event) {
	f(ev)
}

// Fanout combines notifiers into one that delivers to each in turn.
// Nil entries are skipped so optional sinks can be wired unconditionally.
func Fanout(notifiers ...Notifier) Notifier {
	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}

	return NotifierFunc(func(ev Event) {
		for _, n := range active {
			n.Notify(ev)
		}
	})
}
