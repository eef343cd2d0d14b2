package commands

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/config"
	"github.com/colonyops/ans/internal/printer"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "ans config validate [options]",
				Description: "Validates the configuration file, checking the time zone, templates, system bundles and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func validationErrors(err error) []validationError {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) {
		out := make([]validationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			out = append(out, validationError{Field: fe.Field, Message: fe.Err.Error()})
		}
		return out
	}
	return []validationError{{Message: err.Error()}}
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	errs := validationErrors(cfg.ValidateDeep(cmd.flags.ConfigPath))
	warnings := cfg.Warnings()

	if cmd.format == "json" {
		return cmd.outputJSON(c, errs, warnings)
	}

	return cmd.outputText(printer.Ctx(ctx), errs, warnings)
}

func (cmd *ConfigValidateCmd) outputJSON(c *cli.Command, errs []validationError, warnings []config.ValidationWarning) error {
	out := struct {
		Valid    bool                       `json:"valid"`
		Errors   []validationError          `json:"errors,omitempty"`
		Warnings []config.ValidationWarning `json:"warnings,omitempty"`
	}{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}

	if err := writeJSON(c, out); err != nil {
		return err
	}
	if len(errs) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ConfigValidateCmd) outputText(p *printer.Printer, errs []validationError, warnings []config.ValidationWarning) error {
	for _, warn := range warnings {
		p.Warnf("%s: %s", warn.Category, warn.Message)
		if warn.Item != "" {
			p.Printf("  Item: %s", warn.Item)
		}
	}

	for _, err := range errs {
		if err.Field != "" {
			p.Errorf("%s: %s", err.Field, err.Message)
			continue
		}
		p.Errorf("%s", err.Message)
	}

	p.Printf("")
	if len(errs) == 0 {
		p.Successf("Configuration is valid")
		return nil
	}

	p.Errorf("%d error(s) found", len(errs))
	return cli.Exit("", 1)
}
