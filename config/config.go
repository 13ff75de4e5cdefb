// Package config defines the node registry configuration: the HTTP API
// surface, the metrics endpoint, and the optional NATS event announcer.
// Configuration is a JSON file; every field has a working default so the
// file itself is optional.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Service ServiceConfig `json:"service"`
	HTTP    HTTPConfig    `json:"http"`
	Metrics MetricsConfig `json:"metrics"`
	NATS    NATSConfig    `json:"nats"`
	Events  EventsConfig  `json:"events"`
}

// ServiceConfig defines the service identity exposed by /v1/version
type ServiceConfig struct {
	Name string `json:"name"`
}

// HTTPConfig defines the API server settings
type HTTPConfig struct {
	Port           int      `json:"port"`
	EnableCORS     bool     `json:"enable_cors,omitempty"`
	CORSOrigins    []string `json:"cors_origins,omitempty"`
	MaxRequestSize int64    `json:"max_request_size,omitempty"`
}

// MetricsConfig defines the Prometheus metrics endpoint settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// NATSConfig defines the connection to NATS for event announcements.
// The announcer is disabled when no URLs are configured.
type NATSConfig struct {
	URLs          []string      `json:"urls,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty"`
}

// EventsConfig defines publish-event fan-out settings
type EventsConfig struct {
	// SubjectPrefix is the NATS subject prefix for announcements
	// (events publish on "<prefix>.published")
	SubjectPrefix string `json:"subject_prefix,omitempty"`
	// EnableWatch serves the WebSocket event stream at /v1/node-types/watch
	EnableWatch bool `json:"enable_watch,omitempty"`
}

// Default returns a configuration with working defaults for local use
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "arp-node-registry",
		},
		HTTP: HTTPConfig{
			Port:           8080,
			EnableCORS:     false,
			CORSOrigins:    []string{"*"},
			MaxRequestSize: 1 << 20, // 1 MiB
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		NATS: NATSConfig{
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Events: EventsConfig{
			SubjectPrefix: "arp.nodereg.events",
			EnableWatch:   true,
		},
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service.name is required")
	}

	if err := validatePort("http.port", c.HTTP.Port); err != nil {
		return err
	}
	if c.HTTP.MaxRequestSize <= 0 {
		return fmt.Errorf("http.max_request_size must be positive, got %d", c.HTTP.MaxRequestSize)
	}

	if c.Metrics.Enabled {
		if err := validatePort("metrics.port", c.Metrics.Port); err != nil {
			return err
		}
		if c.Metrics.Port == c.HTTP.Port {
			return fmt.Errorf("metrics.port %d collides with http.port", c.Metrics.Port)
		}
	}

	if len(c.NATS.URLs) > 0 && c.Events.SubjectPrefix == "" {
		return errors.New("events.subject_prefix is required when NATS is configured")
	}

	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be in range 1-65535, got %d", field, port)
	}
	return nil
}
