// Package probe extracts normalized stream metadata from media files using
// FFprobe. Probe results are short-lived read-only snapshots owned by the
// caller for the duration of one decision pass.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
)

// StreamType classifies an elementary stream inside a container.
type StreamType string

const (
	StreamTypeVideo      StreamType = "video"
	StreamTypeAudio      StreamType = "audio"
	StreamTypeSubtitle   StreamType = "subtitle"
	StreamTypeData       StreamType = "data"
	StreamTypeAttachment StreamType = "attachment"
	StreamTypeUnknown    StreamType = "unknown"
)

// StreamDescriptor is a normalized view of one probed stream. Index is the
// stream's position among streams of the same type, matching FFmpeg's
// type-relative selector syntax (0:v:N).
type StreamDescriptor struct {
	Index     int
	CodecName string
	CodecType StreamType
}

// ErrProbeUnavailable marks probe failures: the tool failed, produced
// unparseable output, or found no streams. The decision core treats this as
// "cannot decide" and never guesses.
var ErrProbeUnavailable = errors.New("probe unavailable")

// Prober supplies stream descriptors for a file path. The host may inject
// its own implementation; FFprobeProber is the default.
type Prober interface {
	Probe(ctx context.Context, path string) ([]StreamDescriptor, error)
}

// FFprobeProber shells out to ffprobe for stream metadata.
type FFprobeProber struct {
	bin    string
	logger hclog.Logger
}

// NewFFprobeProber creates a prober using the given ffprobe binary. An empty
// bin falls back to resolving "ffprobe" from PATH.
func NewFFprobeProber(bin string, logger hclog.Logger) *FFprobeProber {
	if bin == "" {
		bin = "ffprobe"
	}
	return &FFprobeProber{bin: bin, logger: logger}
}

// Probe runs ffprobe once and returns the file's stream descriptors.
func (p *FFprobeProber) Probe(ctx context.Context, path string) ([]StreamDescriptor, error) {
	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		p.logger.Error("ffprobe failed", "path", path, "error", err)
		return nil, fmt.Errorf("ffprobe %s: %v: %w", path, err, ErrProbeUnavailable)
	}

	streams, err := ParseStreams(output)
	if err != nil {
		p.logger.Error("ffprobe output unparseable", "path", path, "error", err)
		return nil, err
	}

	p.logger.Debug("probed file", "path", path, "streams", len(streams))
	return streams, nil
}

// ffprobe's JSON shape, reduced to the fields the decision core consumes.
type probeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// ParseStreams decodes ffprobe -show_streams JSON into descriptors. Stream
// indices are assigned per codec type in file order.
func ParseStreams(data []byte) ([]StreamDescriptor, error) {
	var parsed probeOutput
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %v: %w", err, ErrProbeUnavailable)
	}
	if len(parsed.Streams) == 0 {
		return nil, fmt.Errorf("no streams found: %w", ErrProbeUnavailable)
	}

	typeCounts := make(map[StreamType]int)
	descriptors := make([]StreamDescriptor, 0, len(parsed.Streams))
	for _, s := range parsed.Streams {
		codecType := normalizeType(s.CodecType)
		descriptors = append(descriptors, StreamDescriptor{
			Index:     typeCounts[codecType],
			CodecName: s.CodecName,
			CodecType: codecType,
		})
		typeCounts[codecType]++
	}
	return descriptors, nil
}

func normalizeType(s string) StreamType {
	switch StreamType(s) {
	case StreamTypeVideo, StreamTypeAudio, StreamTypeSubtitle, StreamTypeData, StreamTypeAttachment:
		return StreamType(s)
	}
	return StreamTypeUnknown
}
