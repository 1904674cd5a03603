// Package plugin wires the probe, decision and planning components into the
// host-facing plugin implementation.
package plugin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/mediary-app/encoder-vp9/internal/config"
	"github.com/mediary-app/encoder-vp9/internal/encoder"
	"github.com/mediary-app/encoder-vp9/internal/mapper"
	"github.com/mediary-app/encoder-vp9/internal/planner"
	"github.com/mediary-app/encoder-vp9/internal/probe"
	"github.com/mediary-app/encoder-vp9/pkg/plugins"
)

// snapshot bundles a validated configuration with its derived encoder
// settings so one atomic swap replaces both on reload.
type snapshot struct {
	cfg      *config.Config
	settings encoder.Settings
}

// VP9Plugin decides whether library files need re-encoding to VP9 and
// constructs the corresponding FFmpeg command plans. Every decision is a
// pure function of the probe result and the active settings snapshot, so
// concurrent host workers can call in without locking.
type VP9Plugin struct {
	logger     hclog.Logger
	configPath string

	current atomic.Pointer[snapshot]

	prober  probe.Prober
	engine  *mapper.Engine
	builder *planner.Builder
	health  *plugins.BaseHealthService
	watcher *config.Watcher
}

// New creates the plugin around an optional settings file path.
func New(configPath string) *VP9Plugin {
	return &VP9Plugin{
		configPath: configPath,
		health:     plugins.NewBaseHealthService(PluginID),
	}
}

// Initialize loads configuration and builds the decision pipeline.
func (p *VP9Plugin) Initialize(ctx *plugins.PluginContext) error {
	p.logger = hclog.New(&hclog.LoggerOptions{
		Name:   PluginID,
		Output: os.Stderr,
		Level:  hclog.LevelFromString(ctx.LogLevel),
	})

	if p.configPath == "" {
		p.configPath = ctx.ConfigPath
	}

	cfg, err := config.Load(p.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := p.apply(cfg); err != nil {
		return err
	}

	p.prober = probe.NewFFprobeProber(cfg.FFmpeg.FFprobePath, p.logger.Named("prober"))
	p.engine = mapper.NewEngine(p.logger.Named("mapper"))
	p.builder = planner.NewBuilder(p.logger.Named("planner"))

	p.logger.Info("vp9 encoder plugin initialized",
		"version", Version,
		"config", p.configPath,
		"mode", cfg.Encoder.Mode)
	return nil
}

// Start begins watching the settings file for changes.
func (p *VP9Plugin) Start() error {
	if p.configPath == "" {
		return nil
	}

	p.watcher = config.NewWatcher(p.configPath, p.logger.Named("config"), func(cfg *config.Config) {
		if err := p.apply(cfg); err != nil {
			p.logger.Error("rejected reloaded configuration", "error", err)
		}
	})
	if err := p.watcher.Start(); err != nil {
		// A failed watch only disables hot reload; the plugin still works
		// with the configuration loaded at startup.
		p.logger.Warn("settings watch unavailable", "error", err)
		p.watcher = nil
	}
	return nil
}

// Stop ends the settings watch.
func (p *VP9Plugin) Stop() error {
	if p.watcher != nil {
		p.watcher.Stop()
		p.watcher = nil
	}
	return nil
}

// Info returns plugin metadata for the host's registry.
func (p *VP9Plugin) Info() (*plugins.PluginInfo, error) {
	return &plugins.PluginInfo{
		ID:          PluginID,
		Name:        "VP9 Video Encoder",
		Version:     Version,
		Type:        plugins.PluginTypeTranscodeDecider,
		Description: "Re-encodes non-VP9 video streams with libvpx-vp9, preserving the source container",
		Author:      "Mediary Team",
	}, nil
}

// Health verifies the probing tool is reachable.
func (p *VP9Plugin) Health() error {
	snap := p.current.Load()
	if snap == nil {
		return fmt.Errorf("plugin not initialized")
	}
	if _, err := exec.LookPath(snap.cfg.FFmpeg.FFprobePath); err != nil {
		return fmt.Errorf("ffprobe not available: %w", err)
	}
	return nil
}

// Service implementations
func (p *VP9Plugin) TranscodeDeciderService() plugins.TranscodeDeciderService {
	return p
}

func (p *VP9Plugin) HealthMonitorService() plugins.HealthMonitorService {
	return p.health
}

// ShouldEnqueue implements the host's pre-queue file test: true when any
// stream in the file still needs conversion.
func (p *VP9Plugin) ShouldEnqueue(ctx context.Context, req *plugins.FileTestRequest) (*plugins.FileTestResponse, error) {
	started := time.Now()
	logger := p.logger.With("request_id", uuid.NewString(), "path", req.Path)

	snap := p.current.Load()
	if !snap.cfg.Enabled {
		return &plugins.FileTestResponse{NeedsProcessing: false, Reason: "plugin disabled"}, nil
	}

	streams, err := p.prober.Probe(ctx, req.Path)
	if err != nil {
		p.health.RecordRequest(false, time.Since(started), err)
		logger.Error("file test failed", "error", err)
		return nil, err
	}

	resp := &plugins.FileTestResponse{}
	if p.engine.AnyNeedsProcessing(streams) {
		resp.NeedsProcessing = true
		resp.Reason = "found video streams not encoded as vp9"
		logger.Debug("file should be added to the task queue")
	} else {
		resp.Reason = "all video streams already vp9"
		logger.Debug("file needs no processing")
	}

	p.health.RecordRequest(true, time.Since(started), nil)
	return resp, nil
}

// BuildCommand implements the worker stage: probe the file, plan its
// streams and return the full encoder argv. RunEncoder is false when the
// file turns out to need no work, which keeps re-queued VP9 output from
// being re-encoded.
func (p *VP9Plugin) BuildCommand(ctx context.Context, req *plugins.WorkerRequest) (*plugins.WorkerResponse, error) {
	started := time.Now()
	logger := p.logger.With("request_id", uuid.NewString(), "input", req.InputPath)

	snap := p.current.Load()
	if !snap.cfg.Enabled {
		return &plugins.WorkerResponse{RunEncoder: false}, nil
	}

	streams, err := p.prober.Probe(ctx, req.InputPath)
	if err != nil {
		p.health.RecordRequest(false, time.Since(started), err)
		logger.Error("worker probe failed", "error", err)
		return nil, err
	}

	decided := p.engine.PlanStreams(streams)
	plan, err := p.builder.Build(req.InputPath, req.OutputPath, decided, snap.settings)
	if err != nil {
		p.health.RecordRequest(false, time.Since(started), err)
		logger.Error("plan construction failed", "error", err)
		return nil, err
	}

	p.health.RecordRequest(true, time.Since(started), nil)

	if plan == nil {
		logger.Debug("no streams require processing, skipping encoder")
		return &plugins.WorkerResponse{RunEncoder: false}, nil
	}

	logger.Info("encoder command built", "output", plan.OutputPath, "streams", len(plan.Fragments))
	return &plugins.WorkerResponse{
		RunEncoder: true,
		Args:       plan.ToArgs(),
		OutputPath: plan.OutputPath,
	}, nil
}

// apply validates and atomically installs a configuration.
func (p *VP9Plugin) apply(cfg *config.Config) error {
	settings, err := cfg.EncoderSettings()
	if err != nil {
		return err
	}
	p.current.Store(&snapshot{cfg: cfg, settings: settings})
	return nil
}
