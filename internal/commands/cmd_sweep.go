package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/printer"
)

type SweepCmd struct {
	flags *Flags
}

// NewSweepCmd creates a new sweep command.
func NewSweepCmd(flags *Flags) *SweepCmd {
	return &SweepCmd{flags: flags}
}

// Register adds the sweep command to the application.
func (cmd *SweepCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "sweep",
		Usage:       "Remove notifications whose auto-delete time has passed",
		Description: "Runs one pass of the expiry reaper. Subscribers receive a cancel with reason auto_delete.",
		Action:      cmd.run,
	})

	return app
}

func (cmd *SweepCmd) run(ctx context.Context, c *cli.Command) error {
	n, err := cmd.flags.App.Service.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	printer.Ctx(ctx).Successf("removed %d expired notification(s)", n)
	return nil
}
