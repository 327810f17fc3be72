package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"feedbutcher/internal/app"
	"feedbutcher/internal/config"
)

// loadConfig читает конфигурацию из --config или возвращает значения по умолчанию.
// Полная проверка нужна только сервису.
func loadConfig(cmd *cli.Command, validate bool) (*config.Config, error) {
	cfg := config.New()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("could not load config: %w", err)
		}
	}
	if !validate {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("could not initialize application: %w", err)
	}
	return application.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := &cli.Command{
		Name:            "feedbutcher",
		Usage:           "dissects RSS 1.0, RSS 2.0 and Atom feeds into entries with well-formed HTML and images",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (JSON or YAML)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Runs the feed processing worker and HTTP API",
				Action: runServe,
			},
			{
				Name:      "dissect",
				Usage:     "Dissects a single feed and prints its entries",
				ArgsUsage: "SOURCE",
				Action:    runDissect,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "base", Usage: "base `URL` for relative links (defaults to SOURCE when it is a URL)"},
					&cli.BoolFlag{Name: "sanitize", Usage: "sanitize entry HTML with the user-generated-content policy"},
					&cli.BoolFlag{Name: "json", Usage: "print the dissected feed as JSON"},
				},
			},
		},
	}

	err := cmd.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "feedbutcher: %v\n", err)
		os.Exit(1)
	}
}
