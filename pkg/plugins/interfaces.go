// Package plugins provides interfaces and types for developing Mediary plugins.
// This package is designed to be imported by external plugins without creating
// dependencies on the main Mediary application.
package plugins

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// Plugin constants
const (
	PluginTypeTranscodeDecider = "transcode_decider"
	PluginTypeMetadataScraper  = "metadata_scraper"
	PluginTypeGeneric          = "generic"
)

// Implementation interface that all plugins must implement
type Implementation interface {
	// Core plugin methods
	Initialize(ctx *PluginContext) error
	Start() error
	Stop() error
	Info() (*PluginInfo, error)
	Health() error

	// Optional service implementations (return nil if not supported)
	TranscodeDeciderService() TranscodeDeciderService
	HealthMonitorService() HealthMonitorService
	ConfigurationService() ConfigurationService
}

// TranscodeDeciderService is implemented by plugins that decide whether a
// library file needs transcoding and, if so, what command the host's worker
// should run. The plugin never executes the encoder itself; it only returns
// argument lists.
type TranscodeDeciderService interface {
	// ShouldEnqueue is called during library file tests, before any task is
	// queued. A true response marks the file as pending work.
	ShouldEnqueue(ctx context.Context, req *FileTestRequest) (*FileTestResponse, error)

	// BuildCommand is called by a worker that picked up a queued task. The
	// response carries the full encoder argument list, or RunEncoder=false
	// when the file turns out to need no work.
	BuildCommand(ctx context.Context, req *WorkerRequest) (*WorkerResponse, error)
}

// ConfigurationService is implemented by plugins whose settings the host can
// inspect and change at runtime.
type ConfigurationService interface {
	// GetConfiguration returns the current plugin configuration
	GetConfiguration(ctx context.Context) (*PluginConfiguration, error)

	// UpdateConfiguration applies a host-supplied configuration at runtime
	UpdateConfiguration(ctx context.Context, config *PluginConfiguration) error

	// ReloadConfiguration reloads configuration from source
	ReloadConfiguration(ctx context.Context) error

	// ValidateConfiguration validates a configuration without applying it
	ValidateConfiguration(config *PluginConfiguration) error
}

// Health monitoring interface for plugins
type HealthMonitorService interface {
	// GetHealthStatus returns the current health status of the plugin
	GetHealthStatus(ctx context.Context) (*HealthStatus, error)

	// GetMetrics returns performance metrics for the plugin
	GetMetrics(ctx context.Context) (*PluginMetrics, error)

	// SetHealthThresholds configures health check thresholds
	SetHealthThresholds(thresholds *HealthThresholds) error
}

// Logger interface for plugin logging
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	With(args ...interface{}) hclog.Logger
}
