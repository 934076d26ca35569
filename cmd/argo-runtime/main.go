package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rxtech-lab/argo-runtime/internal/app"
	"github.com/rxtech-lab/argo-runtime/internal/config"
	"github.com/rxtech-lab/argo-runtime/internal/feed"
	"github.com/rxtech-lab/argo-runtime/internal/logger"
	"github.com/rxtech-lab/argo-runtime/internal/strategies"
	"github.com/rxtech-lab/argo-runtime/internal/version"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	schemaFileName = "runtime-config.json"
	sampleFileName = "runtime-config.yaml"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the runtime `FILE`",
		Sources:  cli.EnvVars("ARGO_RUNTIME_CONFIG"),
		Required: true,
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "log-level",
		Usage: "Override the configured log level (debug, info, warn, error)",
	}
}

func loadConfig(cmd *cli.Command) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}

	if level := cmd.String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	l, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, l, nil
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, l, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer l.Sync() //nolint:errcheck

	runtime, err := app.New(cfg, l)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("starting runtime", zap.String("version", version.GetVersion()), zap.String("config", cmd.String("config")))

	return runtime.Run(ctx)
}

func replayAction(ctx context.Context, cmd *cli.Command) error {
	cfg, l, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer l.Sync() //nolint:errcheck

	cfg.Feed.Enabled = false
	cfg.API.Enabled = false

	runtime, err := app.New(cfg, l)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress io.Writer
	if !cmd.Bool("quiet") {
		progress = cmd.Root().ErrWriter
	}

	result, err := runtime.Replay(ctx, cmd.String("file"), cmd.Float("speed"), progress)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "\nreplayed %d ticks (%d delivered, %d dropped)\n", result.Total, result.Delivered, result.Dropped)

	report, err := yaml.Marshal(runtime.Portfolio().Snapshot())
	if err != nil {
		return err
	}

	_, err = out.Write(report)

	return err
}

func validateAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "config is valid: %d strategies, broker %s\n", len(cfg.Strategies), cfg.Broker.Kind)

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	var (
		out string
		err error
	)

	if kind := cmd.String("strategy"); kind != "" {
		out, err = strategies.ParamsSchema(kind)
	} else {
		out, err = config.Schema()
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, out)

	return nil
}

// initAction writes the config schema and a sample config.
func initAction(_ context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	schema, err := config.Schema()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(dir, schemaFileName), []byte(schema), 0o644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}

	sample, err := config.Example().Marshal()
	if err != nil {
		return err
	}

	header := "# yaml-language-server: $schema=./" + schemaFileName + "\n"
	if err := os.WriteFile(filepath.Join(dir, sampleFileName), append([]byte(header), sample...), 0o644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}

	fmt.Fprintf(cmd.Root().Writer, "wrote %s and %s to %s\n", schemaFileName, sampleFileName, dir)

	return nil
}

func strategiesAction(_ context.Context, cmd *cli.Command) error {
	w := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tDESCRIPTION")

	for _, kind := range strategies.Kinds() {
		d, err := strategies.Describe(kind)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%s\n", d.Kind, d.Description)
	}

	return w.Flush()
}

func versionAction(_ context.Context, cmd *cli.Command) error {
	fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

	return nil
}

func mockFeedAction(ctx context.Context, cmd *cli.Command) error {
	mode, ok := feed.ParseMode(cmd.String("mode"))
	if !ok {
		return fmt.Errorf("unknown mode %q", cmd.String("mode"))
	}

	l, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer l.Sync() //nolint:errcheck

	server := feed.NewMockServer(feed.MockServerConfig{
		Mode:     mode,
		Interval: cmd.Duration("interval"),
		Seed:     int64(cmd.Int("seed")),
	}, l)

	if err := server.Start(cmd.String("addr")); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return server.Stop(shutdownCtx)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "argo-runtime",
		Usage:   "Run trading strategies against a live tick feed",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start the engine, the tick feed and the control plane",
				Flags:  []cli.Flag{configFlag(), logLevelFlag()},
				Action: runAction,
			},
			{
				Name:  "replay",
				Usage: "Feed a recorded CSV of ticks through the configured strategies",
				Flags: []cli.Flag{
					configFlag(),
					logLevelFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "CSV `FILE` with symbol, price and ts columns",
						Required: true,
					},
					&cli.FloatFlag{
						Name:  "speed",
						Usage: "Playback speed; 0 replays as fast as possible, 1 is real time",
						Value: 0,
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Hide the progress bar",
					},
				},
				Action: replayAction,
			},
			{
				Name:   "validate",
				Usage:  "Check a config file",
				Flags:  []cli.Flag{configFlag()},
				Action: validateAction,
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of the config file or of a strategy's params",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Print the params schema of this strategy `KIND`",
					},
				},
				Action: schemaAction,
			},
			{
				Name:  "init",
				Usage: "Write the config schema and a sample config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output `DIR`",
						Value: "config",
					},
				},
				Action: initAction,
			},
			{
				Name:   "strategies",
				Usage:  "List the available strategy kinds",
				Action: strategiesAction,
			},
			{
				Name:   "version",
				Usage:  "Print the runtime version",
				Action: versionAction,
			},
			{
				Name:  "mock-feed",
				Usage: "Serve synthetic touchline ticks over websocket",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: "127.0.0.1:9000",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Price path: normal, momentum, crash, oscillate or flat",
						Value: string(feed.ModeNormal),
					},
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "Delay between ticks",
						Value: feed.DefaultMockInterval,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Random seed; 0 seeds from the clock",
					},
				},
				Action: mockFeedAction,
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
