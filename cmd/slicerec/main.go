// Package main provides the CLI entry point for slicerec.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/user/slicerec/pkg/adapters/ffmpeg"
	"github.com/user/slicerec/pkg/adapters/filesink"
	"github.com/user/slicerec/pkg/adapters/logger"
	"github.com/user/slicerec/pkg/adapters/mp4probe"
	"github.com/user/slicerec/pkg/adapters/nullsink"
	"github.com/user/slicerec/pkg/adapters/osfilesystem"
	"github.com/user/slicerec/pkg/adapters/patternsource"
	"github.com/user/slicerec/pkg/adapters/sysclock"
	"github.com/user/slicerec/pkg/adapters/yuvsource"
	"github.com/user/slicerec/pkg/config"
	"github.com/user/slicerec/pkg/orchestrator"
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
	"github.com/user/slicerec/pkg/recorder"
	"github.com/user/slicerec/pkg/stages/encode"
	"github.com/user/slicerec/pkg/stages/write"
	"github.com/user/slicerec/pkg/summarizer"
)

var version = "dev"

// Flag categories
const (
	categoryInput    = "Input"
	categoryOutput   = "Output"
	categoryEncoding = "Encoding"
	categoryDebug    = "Debug"
	categoryLogging  = "Logging"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "slicerec",
		Usage:   l10n.T("Record raw video sources into encoded slices"),
		Version: version,
		Description: l10n.T("slicerec buffers raw frames per source, cuts them into slices on resolution changes " +
			"or when a size limit is reached, and encodes every slice with ffmpeg."),
		Commands: []*cli.Command{
			recordCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("slicerec version %s", version))
					return nil
				},
			},
		},
	}
}

func recordCommand() *cli.Command {
	return &cli.Command{
		Name:   "record",
		Usage:  l10n.T("Record frame sources into encoded slices"),
		Action: runRecord,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T(categoryInput)},
			&cli.StringSliceFlag{Name: "input", Aliases: []string{"i"}, Usage: l10n.T("Raw yuv420p input file (repeatable)"), Category: l10n.T(categoryInput)},
			&cli.StringFlag{Name: "size", Aliases: []string{"s"}, Usage: l10n.T("Frame size of the inputs (WxH)"), Category: l10n.T(categoryInput)},
			&cli.IntFlag{Name: "fps", Usage: l10n.T("Frame rate of the inputs"), Category: l10n.T(categoryInput)},
			&cli.IntFlag{Name: "frames", Usage: l10n.T("Stop each source after this many frames"), Category: l10n.T(categoryInput)},
			&cli.IntFlag{Name: "switch-every", Usage: l10n.T("Switch test pattern resolution every N frames"), Category: l10n.T(categoryInput)},
			&cli.BoolFlag{Name: "pace", Usage: l10n.T("Deliver frames in real time"), Category: l10n.T(categoryInput)},

			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Directory for encoded slices"), Category: l10n.T(categoryOutput)},
			&cli.StringFlag{Name: "temp-dir", Usage: l10n.T("Directory for raw slice data"), Category: l10n.T(categoryOutput)},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a session summary to this path (- for stdout, JSON when it ends in .json)"), Category: l10n.T(categoryOutput)},
			&cli.BoolFlag{Name: "print-events", Usage: l10n.T("Print a JSON line to stdout for every encoded slice"), Category: l10n.T(categoryOutput)},

			&cli.IntFlag{Name: "max-slice-bytes", Usage: l10n.T("Per-source byte limit of a slice"), Category: l10n.T(categoryEncoding)},
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)"), Category: l10n.T(categoryEncoding)},
			&cli.DurationFlag{Name: "encode-timeout", Usage: l10n.T("Abort an encode after this duration (0 = no limit)"), Category: l10n.T(categoryEncoding)},
			&cli.BoolFlag{Name: "no-probe", Usage: l10n.T("Do not inspect encoded files"), Category: l10n.T(categoryEncoding)},

			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save slice descriptors and previews"), Category: l10n.T(categoryDebug)},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T(categoryDebug)},
			&cli.StringFlag{Name: "metrics-addr", Usage: l10n.T("Serve Prometheus metrics on this address (e.g. :9090)"), Category: l10n.T(categoryDebug)},

			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(categoryLogging)},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(categoryLogging)},
		},
	}
}

func runRecord(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Create logger
	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		level, _ := ports.ParseLogLevel(cfg.LogLevel) // checked by Validate
		log = logger.NewConsole(level)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, log)
		defer srv.Close()
	}

	// Create adapters
	fs := osfilesystem.New()
	clock := sysclock.New()

	runner, err := ffmpeg.New(cfg.FFmpegPath, log)
	if err != nil {
		return err
	}
	log.Debug("Using ffmpeg at %s", runner.Path())

	var prober ports.VideoProber
	if cfg.Probe {
		prober = mp4probe.New()
	}

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs)
	} else {
		sink = nullsink.New()
	}

	sources, err := buildSources(cfg.Sources, clock, log)
	if err != nil {
		return err
	}

	// Create stages and recorder
	writeStage := write.NewStage(fs, sink, log)
	encodeStage := encode.NewStage(fs, runner, prober, log)

	sessionDir := cfg.NewSessionDir()
	rec := recorder.New(cfg.ToRecorderConfig(sessionDir), fs, writeStage, encodeStage, clock, log)
	if c.Bool("print-events") {
		rec.Subscribe(eventPrinter())
	}

	orch := orchestrator.New(rec, sources, log)

	log.Info("Recording %d sources into %s", len(sources), cfg.OutputDir)
	result, runErr := orch.Run(ctx, cfg.ToOrchestratorConfig())

	if result.Failed() == 0 {
		// Every slice directory is gone; only the empty session root remains.
		if err := fs.Remove(sessionDir); err != nil {
			log.Debug("Could not remove session directory %s: %s", sessionDir, err)
		}
	} else {
		log.Warn("Raw data of %d failed slices kept in %s", result.Failed(), sessionDir)
	}

	if cfg.Summary != "" {
		if err := writeSummary(cfg, sessionDir, result, fs); err != nil {
			log.Error("Failed to write summary: %s", err)
		} else if cfg.Summary != summarizer.StdoutPath {
			log.Info("Summary saved to %s", cfg.Summary)
		}
	}

	return runErr
}

// buildConfig loads the config file, if any, and applies flag overrides.
func buildConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("temp-dir") {
		cfg.TempDir = c.String("temp-dir")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("max-slice-bytes") {
		cfg.MaxSliceBytes = c.Int("max-slice-bytes")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("encode-timeout") {
		cfg.EncodeTimeout = c.Duration("encode-timeout")
	}
	if c.Bool("no-probe") {
		cfg.Probe = false
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	// Inputs on the command line replace configured sources.
	if inputs := c.StringSlice("input"); len(inputs) > 0 {
		cfg.Sources = nil
		for _, path := range inputs {
			cfg.Sources = append(cfg.Sources, config.SourceConfig{Type: config.SourceYUV, Path: path})
		}
	}
	if len(cfg.Sources) == 0 {
		cfg.Sources = []config.SourceConfig{config.DefaultSource()}
	}

	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if c.IsSet("size") {
			w, h, err := parseSize(c.String("size"))
			if err != nil {
				return cfg, err
			}
			s.Width, s.Height = w, h
		}
		if c.IsSet("fps") {
			s.FPS = c.Int("fps")
		}
		if c.IsSet("frames") {
			s.Frames = c.Int("frames")
		}
		if c.IsSet("switch-every") {
			s.SwitchEvery = c.Int("switch-every")
		}
		if c.IsSet("pace") {
			s.Pace = c.Bool("pace")
		}
	}

	return cfg, nil
}

// parseSize parses a WxH frame size.
func parseSize(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(strings.ToLower(s), "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	return w, h, nil
}

func buildSources(cfgs []config.SourceConfig, clock ports.Clock, log ports.Logger) ([]ports.FrameSource, error) {
	sources := make([]ports.FrameSource, 0, len(cfgs))
	for i, sc := range cfgs {
		var (
			src ports.FrameSource
			err error
		)
		switch sc.Type {
		case config.SourceYUV:
			src, err = yuvsource.New(yuvsource.Config{
				Path:   sc.Path,
				Width:  sc.Width,
				Height: sc.Height,
				FPS:    sc.FPS,
				Frames: sc.Frames,
				Pace:   sc.Pace,
			}, clock, log)
		case config.SourcePattern:
			src, err = patternsource.New(patternsource.Config{
				Width:       sc.Width,
				Height:      sc.Height,
				FPS:         sc.FPS,
				Frames:      sc.Frames,
				SwitchEvery: sc.SwitchEvery,
				Pace:        sc.Pace,
			}, clock, log)
		default:
			err = fmt.Errorf("unknown source type %q", sc.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func serveMetrics(addr string, log ports.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("Serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed: %s", err)
		}
	}()
	return srv
}

// eventPrinter writes one JSON line per encoded slice to stdout.
func eventPrinter() ports.SliceListener {
	enc := json.NewEncoder(os.Stdout)
	return ports.SliceListenerFunc(func(e pipeline.SliceReadyEvent) {
		enc.Encode(struct {
			Slice    uint64 `json:"slice"`
			FilePath string `json:"filePath"`
		}{e.Slice, e.FilePath})
	})
}

func writeSummary(cfg config.Config, sessionDir string, result orchestrator.RunResult, fs ports.FileSystem) error {
	summary := summarizer.NewBuilder().
		WithSession(summarizer.SessionInfo{
			RootDir:     sessionDir,
			OutputDir:   cfg.OutputDir,
			Sources:     len(cfg.Sources),
			TotalFrames: result.TotalFrames(),
			Duration:    result.Duration,
			Finalized:   result.Finalized,
			Interrupted: result.Interrupted,
		}).
		WithSettings(summarizer.Settings{
			MaxSliceBytes: cfg.MaxSliceBytes,
			EncodeTimeout: cfg.EncodeTimeout,
			FFmpegPath:    cfg.FFmpegPath,
		}).
		WithSlices(result.Slices).
		Build()

	formatter := summarizer.ForPath(cfg.Summary, summarizer.NewMarkdownFormatter(
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	))
	return summarizer.NewWriter(formatter, fs).Write(cfg.Summary, summary)
}
