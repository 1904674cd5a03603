// Package planner assembles per-stream encoding fragments into one complete
// FFmpeg command plan. Plans are built fresh per file evaluation, never
// mutated afterwards, and never executed here; running the encoder belongs
// to the host's worker.
package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mediary-app/encoder-vp9/internal/encoder"
	"github.com/mediary-app/encoder-vp9/internal/probe"
)

// ErrMalformedPath marks input or output paths without a parseable container
// extension. The builder fails closed rather than guessing a container.
var ErrMalformedPath = errors.New("path has no container extension")

// globalArgs precede all stream fragments in every plan.
var globalArgs = []string{"-hide_banner", "-loglevel", "info"}

// CommandPlan is the fully ordered transcode invocation for one file.
type CommandPlan struct {
	InputPath  string
	OutputPath string
	GlobalArgs []string
	Fragments  []encoder.MappingFragment
}

// ToArgs flattens the plan into the argv an external process runner hands to
// FFmpeg: input, global flags, all stream selectors, all encoder arguments,
// then the overwrite flag and output path.
func (p *CommandPlan) ToArgs() []string {
	args := []string{"-i", p.InputPath}
	args = append(args, p.GlobalArgs...)
	for _, fragment := range p.Fragments {
		args = append(args, fragment.Mapping...)
	}
	for _, fragment := range p.Fragments {
		args = append(args, fragment.Encoding...)
	}
	args = append(args, "-y", p.OutputPath)
	return args
}

// Builder derives command plans from decided streams and a settings profile.
type Builder struct {
	logger hclog.Logger
}

// NewBuilder creates a command plan builder
func NewBuilder(logger hclog.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build assembles the plan for one file. A nil plan with a nil error means
// no stream needs transcoding and the caller must not invoke an encoder.
//
// The output path keeps the caller-supplied base name but takes the input
// file's extension, so the container is preserved and only the codec
// changes.
func (b *Builder) Build(inputPath, outputPath string, decided []probe.StreamDescriptor, settings encoder.Settings) (*CommandPlan, error) {
	if len(decided) == 0 {
		b.logger.Debug("no streams need processing, skipping plan", "input", inputPath)
		return nil, nil
	}

	outPath, err := preserveContainer(inputPath, outputPath)
	if err != nil {
		return nil, err
	}

	ordered := make([]probe.StreamDescriptor, len(decided))
	copy(ordered, decided)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	fragments := make([]encoder.MappingFragment, 0, len(ordered))
	for _, stream := range ordered {
		fragments = append(fragments, encoder.DeriveArgs(settings, stream.Index))
	}

	plan := &CommandPlan{
		InputPath:  inputPath,
		OutputPath: outPath,
		GlobalArgs: globalArgs,
		Fragments:  fragments,
	}

	b.logger.Info("built command plan",
		"input", inputPath,
		"output", plan.OutputPath,
		"streams", len(fragments),
		"mode", settings.Mode)

	return plan, nil
}

// preserveContainer swaps the output extension for the input's. Both paths
// must carry an extension; a missing one is a configuration error.
func preserveContainer(inputPath, outputPath string) (string, error) {
	inExt := filepath.Ext(inputPath)
	if inExt == "" {
		return "", fmt.Errorf("input %q: %w", inputPath, ErrMalformedPath)
	}
	outExt := filepath.Ext(outputPath)
	if outExt == "" {
		return "", fmt.Errorf("output %q: %w", outputPath, ErrMalformedPath)
	}
	return strings.TrimSuffix(outputPath, outExt) + inExt, nil
}
