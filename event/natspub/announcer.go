// Package natspub announces registry events on NATS so other platform
// services can react to newly published node types without polling.
package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/errors"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/metric"
)

// Config holds the announcer connection settings
type Config struct {
	// URLs are the NATS server URLs; at least one is required
	URLs []string
	// SubjectPrefix is prepended to the event subject
	// (published events go to "<prefix>.published")
	SubjectPrefix string
	// MaxReconnects limits reconnection attempts (-1 for infinite)
	MaxReconnects int
	// ReconnectWait is the delay between reconnection attempts
	ReconnectWait time.Duration
}

// Announcer publishes registry events to NATS. Delivery is fire-and-forget:
// a failed publish is logged and counted, never surfaced to the API caller.
type Announcer struct {
	config  Config
	logger  *slog.Logger
	metrics *metric.Metrics

	conn    *nats.Conn
	running atomic.Bool
}

// NewAnnouncer creates a NATS announcer from configuration
func NewAnnouncer(cfg Config, logger *slog.Logger, metrics *metric.Metrics) (*Announcer, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Announcer", "NewAnnouncer", "NATS URLs validation")
	}
	if cfg.SubjectPrefix == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Announcer", "NewAnnouncer", "subject prefix validation")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Announcer{
		config:  cfg,
		logger:  logger.With("component", "announcer"),
		metrics: metrics,
	}, nil
}

// Start connects to NATS
func (a *Announcer) Start(_ context.Context) error {
	if a.running.Load() {
		return errors.WrapInternal(errors.ErrAlreadyStarted,
			"Announcer", "Start", "announcer already running")
	}

	opts := []nats.Option{
		nats.Name("arp-node-registry"),
		nats.MaxReconnects(a.config.MaxReconnects),
		nats.ReconnectWait(a.config.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			a.logger.Warn("NATS disconnected", "error", err)
			a.recordStatus(false)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			a.logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
			a.recordStatus(true)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			a.logger.Info("NATS connection closed")
			a.recordStatus(false)
		}),
	}

	conn, err := nats.Connect(strings.Join(a.config.URLs, ","), opts...)
	if err != nil {
		return errors.WrapInternal(err, "Announcer", "Start", "connect to NATS")
	}

	a.conn = conn
	a.running.Store(true)
	a.recordStatus(true)
	a.logger.Info("Announcer connected", "subject_prefix", a.config.SubjectPrefix)

	return nil
}

// Stop drains and closes the NATS connection
func (a *Announcer) Stop(timeout time.Duration) error {
	if !a.running.Load() {
		return nil
	}
	a.running.Store(false)

	conn := a.conn
	if conn == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.Drain()
	}()

	select {
	case err := <-done:
		if err != nil {
			conn.Close()
			return errors.WrapInternal(err, "Announcer", "Stop", "drain connection")
		}
	case <-time.After(timeout):
		conn.Close()
		return errors.WrapInternal(fmt.Errorf("drain timed out after %s", timeout),
			"Announcer", "Stop", "drain connection")
	}

	a.recordStatus(false)
	return nil
}

// Healthy reports whether the announcer holds a live connection
func (a *Announcer) Healthy() bool {
	return a.running.Load() && a.conn != nil && a.conn.IsConnected()
}

// Notify implements event.Notifier by publishing the event to NATS
func (a *Announcer) Notify(ev event.Event) {
	if !a.running.Load() {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		a.logger.Error("Failed to marshal event", "error", err, "type", ev.Type)
		return
	}

	subject := a.subjectFor(ev)
	if err := a.conn.Publish(subject, data); err != nil {
		a.logger.Error("Failed to publish event",
			"error", err, "subject", subject, "node_type_id", ev.NodeTypeID)
		return
	}

	if a.metrics != nil {
		a.metrics.RecordEventPublished("nats")
	}
}

// subjectFor maps an event type to its NATS subject
func (a *Announcer) subjectFor(ev event.Event) string {
	switch ev.Type {
	case event.TypePublished:
		return a.config.SubjectPrefix + ".published"
	default:
		return a.config.SubjectPrefix + "." + ev.Type
	}
}

func (a *Announcer) recordStatus(connected bool) {
	if a.metrics != nil {
		a.metrics.RecordAnnouncerStatus(connected)
	}
}
