// Command argo-top is a terminal dashboard for a running argo-runtime.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-runtime/internal/version"
	"github.com/urfave/cli/v3"
)

const (
	defaultURL      = "http://127.0.0.1:8080"
	defaultInterval = time.Second
)

func connect(baseURL string) Fetcher {
	return NewClient(baseURL)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "argo-top",
		Usage:   "Watch positions, PnL and engine stats of a running runtime",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "Control plane `URL`",
				Value:   defaultURL,
				Sources: cli.EnvVars("ARGO_RUNTIME_URL"),
			},
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Refresh interval",
				Value:   defaultInterval,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			interval := cmd.Duration("interval")
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}

			p := tea.NewProgram(NewModel(cmd.String("url"), interval, connect), tea.WithAltScreen())
			_, err := p.Run()

			return err
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
