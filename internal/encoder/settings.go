// Package encoder derives libvpx-vp9 encoding arguments from a validated
// settings profile. Argument derivation is a pure function of the settings
// and a stream index, so identical inputs always produce identical fragments.
package encoder

import (
	"errors"
	"fmt"
)

// Mode selects the libvpx-vp9 rate-control strategy. Exactly one mode is
// active per run; it comes from configuration, not from stream inspection.
type Mode int

const (
	// ModeAverageBitrate targets an average bitrate (VBR).
	ModeAverageBitrate Mode = iota
	// ModeConstantQuality drives quality from CRF alone, uncapped bitrate.
	ModeConstantQuality
	// ModeConstrainedQuality combines CRF with a bitrate ceiling.
	ModeConstrainedQuality
	// ModeConstantBitrate pins minrate, maxrate and target bitrate together.
	ModeConstantBitrate
	// ModeLossless enables the lossless flag and ignores CRF/bitrate.
	ModeLossless
)

var modeNames = map[Mode]string{
	ModeAverageBitrate:     "average_bitrate",
	ModeConstantQuality:    "constant_quality",
	ModeConstrainedQuality: "constrained_quality",
	ModeConstantBitrate:    "constant_bitrate",
	ModeLossless:           "lossless",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a configuration string to a Mode. Unknown values are a
// configuration error; callers that need parity with legacy settings files
// fall back to DeriveFallbackArgs instead.
func ParseMode(s string) (Mode, error) {
	for mode, name := range modeNames {
		if name == s {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown encoding mode %q", ErrInvalidSettings, s)
}

// Deadline is the libvpx speed/quality trade-off preset.
type Deadline string

const (
	DeadlineGood     Deadline = "good"
	DeadlineBest     Deadline = "best"
	DeadlineRealtime Deadline = "realtime"
)

// ParseDeadline validates a configuration string as a Deadline.
func ParseDeadline(s string) (Deadline, error) {
	switch Deadline(s) {
	case DeadlineGood, DeadlineBest, DeadlineRealtime:
		return Deadline(s), nil
	}
	return "", fmt.Errorf("%w: unknown deadline %q", ErrInvalidSettings, s)
}

// ErrInvalidSettings marks configuration errors. No fragment is derived from
// settings that fail validation.
var ErrInvalidSettings = errors.New("invalid encoder settings")

// CRF and cpu-used bounds accepted by libvpx-vp9.
const (
	MinCRF     = 0
	MaxCRF     = 63
	MinCPUUsed = 0
	MaxCPUUsed = 5
)

// Settings is the immutable encoding profile for one run. It is loaded once
// from configuration and threaded through every call rather than held in a
// process-wide singleton.
type Settings struct {
	Mode     Mode
	CRF      int
	Bitrate  string
	Deadline Deadline
	CPUUsed  int
}

// DefaultSettings mirrors the plugin's stock profile: average bitrate at 2M.
func DefaultSettings() Settings {
	return Settings{
		Mode:     ModeAverageBitrate,
		CRF:      31,
		Bitrate:  "2M",
		Deadline: DeadlineGood,
		CPUUsed:  0,
	}
}

// Validate checks ranges and mode-specific required fields. A settings value
// that passes Validate never causes DeriveArgs to emit a malformed fragment.
func (s Settings) Validate() error {
	if _, ok := modeNames[s.Mode]; !ok {
		return fmt.Errorf("%w: unknown encoding mode %d", ErrInvalidSettings, int(s.Mode))
	}
	if s.CRF < MinCRF || s.CRF > MaxCRF {
		return fmt.Errorf("%w: crf %d outside [%d,%d]", ErrInvalidSettings, s.CRF, MinCRF, MaxCRF)
	}
	if s.CPUUsed < MinCPUUsed || s.CPUUsed > MaxCPUUsed {
		return fmt.Errorf("%w: cpu-used %d outside [%d,%d]", ErrInvalidSettings, s.CPUUsed, MinCPUUsed, MaxCPUUsed)
	}
	if _, err := ParseDeadline(string(s.Deadline)); err != nil {
		return err
	}
	if s.Bitrate == "" && s.Mode.requiresBitrate() {
		return fmt.Errorf("%w: mode %s requires a bitrate", ErrInvalidSettings, s.Mode)
	}
	return nil
}

func (m Mode) requiresBitrate() bool {
	switch m {
	case ModeAverageBitrate, ModeConstrainedQuality, ModeConstantBitrate:
		return true
	}
	return false
}
