package encoder

import (
	"fmt"
	"strconv"
)

const (
	// codec is the only encoder this plugin emits; the decision engine
	// guarantees streams already in VP9 never reach argument derivation.
	codec = "libvpx-vp9"

	// libvpx tile threading cap; fixed rather than derived from the machine
	// so that plans are reproducible across hosts.
	threadCount = "8"

	// fallbackBitrate matches the legacy plugin's hardcoded default.
	fallbackBitrate = "2M"
)

// MappingFragment is the per-stream output of argument derivation: the
// stream-selector pair and the ordered encoder arguments. Fragments are
// value types and never mutated after creation.
type MappingFragment struct {
	// Mapping selects the source stream, e.g. ["-map", "0:v:0"].
	Mapping []string
	// Encoding carries the codec selection and rate-control arguments.
	// It always begins with the stream's codec-selection pair.
	Encoding []string
}

// DeriveArgs produces the encoder fragment for one video stream. The index
// is the stream's position among the file's video streams. Settings must
// have passed Validate; DeriveArgs itself raises no errors and has no side
// effects.
func DeriveArgs(s Settings, streamIndex int) MappingFragment {
	enc := []string{streamCodecFlag(streamIndex), codec}

	switch s.Mode {
	case ModeAverageBitrate:
		enc = append(enc, streamBitrateFlag(streamIndex), s.Bitrate)
	case ModeConstantQuality:
		enc = append(enc, "-crf", strconv.Itoa(s.CRF), streamBitrateFlag(streamIndex), "0")
	case ModeConstrainedQuality:
		enc = append(enc, "-crf", strconv.Itoa(s.CRF), streamBitrateFlag(streamIndex), s.Bitrate)
	case ModeConstantBitrate:
		enc = append(enc,
			"-minrate", s.Bitrate,
			"-maxrate", s.Bitrate,
			streamBitrateFlag(streamIndex), s.Bitrate)
	case ModeLossless:
		enc = append(enc, "-lossless", "1")
	}

	enc = append(enc,
		"-threads", threadCount,
		"-row-mt", "1",
		"-deadline", string(s.Deadline),
		"-cpu-used", strconv.Itoa(s.CPUUsed))

	return MappingFragment{
		Mapping:  []string{"-map", fmt.Sprintf("0:v:%d", streamIndex)},
		Encoding: enc,
	}
}

// DeriveFallbackArgs reproduces the legacy behavior for settings files whose
// mode field never parsed: a bare average-bitrate shape at 2M. Kept only for
// parity with libraries migrated from the old plugin; new configurations get
// a configuration error from ParseMode instead.
func DeriveFallbackArgs(streamIndex int) MappingFragment {
	return MappingFragment{
		Mapping: []string{"-map", fmt.Sprintf("0:v:%d", streamIndex)},
		Encoding: []string{
			streamCodecFlag(streamIndex), codec,
			"-b:v", fallbackBitrate,
		},
	}
}

func streamCodecFlag(streamIndex int) string {
	return fmt.Sprintf("-c:v:%d", streamIndex)
}

func streamBitrateFlag(streamIndex int) string {
	return fmt.Sprintf("-b:v:%d", streamIndex)
}
