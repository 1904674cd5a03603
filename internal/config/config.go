// Package config loads and validates the plugin's settings file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mediary-app/encoder-vp9/internal/encoder"
)

// Config is the complete plugin configuration.
type Config struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Encoder EncoderConfig `yaml:"encoder" json:"encoder"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg" json:"ffmpeg"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// EncoderConfig holds the user-selectable encoding profile, kept as plain
// strings/ints as they appear in the settings file. EncoderSettings converts
// it to the validated form the policy consumes.
type EncoderConfig struct {
	Mode     string `yaml:"mode" json:"mode"`
	CRF      int    `yaml:"crf" json:"crf"`
	Bitrate  string `yaml:"bitrate" json:"bitrate"`
	Deadline string `yaml:"deadline" json:"deadline"`
	CPUUsed  int    `yaml:"cpu_used" json:"cpu_used"`
}

// FFmpegConfig contains probing-tool settings.
type FFmpegConfig struct {
	FFprobePath string `yaml:"ffprobe_path" json:"ffprobe_path"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// Default returns the stock configuration, matching the defaults the legacy
// plugin shipped with.
func Default() *Config {
	settings := encoder.DefaultSettings()
	return &Config{
		Enabled: true,
		Encoder: EncoderConfig{
			Mode:     settings.Mode.String(),
			CRF:      settings.CRF,
			Bitrate:  settings.Bitrate,
			Deadline: string(settings.Deadline),
			CPUUsed:  settings.CPUUsed,
		},
		FFmpeg: FFmpegConfig{
			FFprobePath: "ffprobe",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the settings file at path. A missing file yields defaults; a
// present but invalid file is a configuration error, surfaced before any
// plan is built.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", encoder.ErrInvalidSettings, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the whole configuration. It is called once at load; the
// rest of the plugin assumes a validated config.
func (c *Config) Validate() error {
	if _, err := c.EncoderSettings(); err != nil {
		return err
	}
	if c.FFmpeg.FFprobePath == "" {
		return fmt.Errorf("%w: ffprobe path cannot be empty", encoder.ErrInvalidSettings)
	}
	return nil
}

// EncoderSettings converts the file-level profile into validated encoder
// settings.
func (c *Config) EncoderSettings() (encoder.Settings, error) {
	mode, err := encoder.ParseMode(c.Encoder.Mode)
	if err != nil {
		return encoder.Settings{}, err
	}
	deadline, err := encoder.ParseDeadline(c.Encoder.Deadline)
	if err != nil {
		return encoder.Settings{}, err
	}

	settings := encoder.Settings{
		Mode:     mode,
		CRF:      c.Encoder.CRF,
		Bitrate:  c.Encoder.Bitrate,
		Deadline: deadline,
		CPUUsed:  c.Encoder.CPUUsed,
	}
	if err := settings.Validate(); err != nil {
		return encoder.Settings{}, err
	}
	return settings, nil
}
