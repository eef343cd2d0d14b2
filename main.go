package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/ans"
	"github.com/colonyops/ans/internal/commands"
	"github.com/colonyops/ans/internal/core/config"
	"github.com/colonyops/ans/internal/printer"
	"github.com/colonyops/ans/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, build() falls back to
	// runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "ans",
		Usage:     "Publish and manage notifications",
		UsageText: "ans [global options] command [command options]",
		Description: `ans keeps the active notifications of every application, their slots,
per-user do-not-disturb windows and per-bundle settings in a local database.

Every command runs as the application named by --bundle, --uid and --user.
Pass --system (or use a bundle listed in system_bundles) for management commands.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("ANS_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("ANS_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("ANS_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("ANS_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		}, flags.IdentityFlags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			a, err := ans.Open(cfg, nil)
			if err != nil {
				return ctx, err
			}
			a.Start(ctx, true)
			flags.App = a

			ctx = printer.With(ctx, printer.New(c.Root().Writer, printer.IsTerminal(os.Stdout)))
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if flags.App != nil {
				if err := flags.App.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewPublishCmd(flags).Register(app)
	app = commands.NewCancelCmd(flags).Register(app)
	app = commands.NewActiveCmd(flags).Register(app)
	app = commands.NewSlotCmd(flags).Register(app)
	app = commands.NewDndCmd(flags).Register(app)
	app = commands.NewBundleCmd(flags).Register(app)
	app = commands.NewJournalCmd(flags).Register(app)
	app = commands.NewSweepCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
