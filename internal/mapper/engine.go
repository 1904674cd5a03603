// Package mapper decides which streams of a probed file require conversion
// to VP9. The predicate is pure, so the engine is safe under concurrent use.
package mapper

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mediary-app/encoder-vp9/internal/probe"
)

// targetCodec is the codec this plugin converges libraries onto. Matching is
// case-insensitive so probe variations like "VP9" do not trigger re-encodes.
const targetCodec = "vp9"

// Engine marks streams that need conversion. Re-running the engine on its
// own output selects nothing, which keeps hosts that re-scan their library
// from re-encoding the same file forever.
type Engine struct {
	logger hclog.Logger
}

// NewEngine creates a stream decision engine
func NewEngine(logger hclog.Logger) *Engine {
	return &Engine{logger: logger}
}

// NeedsProcessing reports whether one stream requires conversion: it must be
// a video stream whose codec is not already the target. A stream with no
// codec name fails open toward re-encoding rather than raising.
func (e *Engine) NeedsProcessing(stream probe.StreamDescriptor) bool {
	if stream.CodecType != probe.StreamTypeVideo {
		return false
	}
	if stream.CodecName == "" {
		e.logger.Warn("stream has no codec name, assuming it needs processing",
			"stream_index", stream.Index)
		return true
	}
	return !strings.EqualFold(stream.CodecName, targetCodec)
}

// PlanStreams returns the subset of streams needing conversion, ordered by
// stream index ascending regardless of input order. Order is significant:
// the command plan's output stream ordering follows it.
func (e *Engine) PlanStreams(streams []probe.StreamDescriptor) []probe.StreamDescriptor {
	var decided []probe.StreamDescriptor
	for _, stream := range streams {
		if e.NeedsProcessing(stream) {
			decided = append(decided, stream)
		}
	}
	sort.Slice(decided, func(i, j int) bool {
		return decided[i].Index < decided[j].Index
	})
	return decided
}

// AnyNeedsProcessing reports whether any stream in the set qualifies. This
// backs the host's pre-queue file test.
func (e *Engine) AnyNeedsProcessing(streams []probe.StreamDescriptor) bool {
	for _, stream := range streams {
		if e.NeedsProcessing(stream) {
			return true
		}
	}
	return false
}
