// Package main provides vp9plan, a small inspection tool that runs the
// plugin's decision pipeline against a file without a host attached and
// without executing anything.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v2"

	"github.com/mediary-app/encoder-vp9/internal/config"
	"github.com/mediary-app/encoder-vp9/internal/mapper"
	"github.com/mediary-app/encoder-vp9/internal/planner"
	"github.com/mediary-app/encoder-vp9/internal/probe"
)

func main() {
	app := &cli.App{
		Name:  "vp9plan",
		Usage: "dry-run the VP9 encoder plugin's decisions against a media file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the plugin settings file",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "report whether a file has streams needing conversion",
				ArgsUsage: "<file>",
				Action:    runCheck,
			},
			{
				Name:      "plan",
				Usage:     "print the ffmpeg arguments the plugin would emit",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "destination path the host would hand to the worker",
						Required: true,
					},
				},
				Action: runPlan,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type pipeline struct {
	cfg     *config.Config
	prober  probe.Prober
	engine  *mapper.Engine
	builder *planner.Builder
}

func newPipeline(c *cli.Context) (*pipeline, error) {
	level := hclog.Warn
	if c.Bool("verbose") {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "vp9plan",
		Output: os.Stderr,
		Level:  level,
	})

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:     cfg,
		prober:  probe.NewFFprobeProber(cfg.FFmpeg.FFprobePath, logger.Named("prober")),
		engine:  mapper.NewEngine(logger.Named("mapper")),
		builder: planner.NewBuilder(logger.Named("planner")),
	}, nil
}

func runCheck(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("check requires exactly one file argument", 2)
	}
	path := c.Args().First()

	p, err := newPipeline(c)
	if err != nil {
		return err
	}

	streams, err := p.prober.Probe(c.Context, path)
	if err != nil {
		return err
	}

	for _, stream := range streams {
		marker := " "
		if p.engine.NeedsProcessing(stream) {
			marker = "*"
		}
		fmt.Printf("%s %-10s #%d  codec=%s\n", marker, stream.CodecType, stream.Index, stream.CodecName)
	}

	if p.engine.AnyNeedsProcessing(streams) {
		fmt.Println("needs processing: yes")
		return nil
	}
	fmt.Println("needs processing: no")
	return nil
}

func runPlan(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("plan requires exactly one file argument", 2)
	}
	path := c.Args().First()

	p, err := newPipeline(c)
	if err != nil {
		return err
	}
	settings, err := p.cfg.EncoderSettings()
	if err != nil {
		return err
	}

	streams, err := p.prober.Probe(c.Context, path)
	if err != nil {
		return err
	}

	plan, err := p.builder.Build(path, c.String("output"), p.engine.PlanStreams(streams), settings)
	if err != nil {
		return err
	}
	if plan == nil {
		fmt.Println("no transcode needed")
		return nil
	}

	fmt.Println("ffmpeg", strings.Join(plan.ToArgs(), " "))
	return nil
}
