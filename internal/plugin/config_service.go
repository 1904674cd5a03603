package plugin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mediary-app/encoder-vp9/internal/config"
	"github.com/mediary-app/encoder-vp9/pkg/plugins"
)

// ConfigurationService exposes the active settings to the host and accepts
// runtime updates. Host-pushed configurations go through the same validation
// as file loads; an invalid push leaves the current snapshot untouched.
func (p *VP9Plugin) ConfigurationService() plugins.ConfigurationService {
	return p
}

// GetConfiguration returns the active configuration in wire form.
func (p *VP9Plugin) GetConfiguration(ctx context.Context) (*plugins.PluginConfiguration, error) {
	snap := p.current.Load()
	if snap == nil {
		return nil, fmt.Errorf("plugin not initialized")
	}

	settings, err := configToSettingsMap(snap.cfg)
	if err != nil {
		return nil, err
	}
	return &plugins.PluginConfiguration{
		Version:  Version,
		Enabled:  snap.cfg.Enabled,
		Settings: settings,
	}, nil
}

// UpdateConfiguration applies a host-supplied configuration.
func (p *VP9Plugin) UpdateConfiguration(ctx context.Context, pc *plugins.PluginConfiguration) error {
	cfg, err := configFromPayload(pc)
	if err != nil {
		return err
	}
	if err := p.apply(cfg); err != nil {
		return err
	}
	p.logger.Info("configuration updated by host", "mode", cfg.Encoder.Mode, "enabled", cfg.Enabled)
	return nil
}

// ReloadConfiguration re-reads the settings file.
func (p *VP9Plugin) ReloadConfiguration(ctx context.Context) error {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return err
	}
	return p.apply(cfg)
}

// ValidateConfiguration checks a configuration without applying it.
func (p *VP9Plugin) ValidateConfiguration(pc *plugins.PluginConfiguration) error {
	_, err := configFromPayload(pc)
	return err
}

// configToSettingsMap round-trips the config through its json tags into the
// wire document.
func configToSettingsMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var settings map[string]interface{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// configFromPayload decodes a wire document over the defaults and validates
// the result.
func configFromPayload(pc *plugins.PluginConfiguration) (*config.Config, error) {
	cfg := config.Default()

	if pc.Settings != nil {
		data, err := json.Marshal(pc.Settings)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode configuration payload: %w", err)
		}
	}
	cfg.Enabled = pc.Enabled

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
