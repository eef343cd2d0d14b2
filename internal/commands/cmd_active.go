package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/printer"
)

type ActiveCmd struct {
	flags *Flags
	all   bool
	json  bool
}

// NewActiveCmd creates a new active command.
func NewActiveCmd(flags *Flags) *ActiveCmd {
	return &ActiveCmd{flags: flags}
}

// Register adds the active command to the application.
func (cmd *ActiveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "active",
		Usage: "Inspect active notifications",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List active notifications in publish order",
				UsageText: "ans active ls [--all] [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "list every bundle's notifications (system only)", Destination: &cmd.all},
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
				},
				Action: cmd.runList,
			},
			{
				Name:   "count",
				Usage:  "Print the number of active notifications of the calling bundle",
				Action: cmd.runCount,
			},
		},
	})

	return app
}

func (cmd *ActiveCmd) runList(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.App.Service
	reqs, err := call(ctx, cmd.flags, func(ctx context.Context) ([]notification.Request, error) {
		if cmd.all {
			return svc.GetAllActiveNotifications(ctx)
		}
		return svc.GetActiveNotifications(ctx)
	})
	if err != nil {
		return fmt.Errorf("list active notifications: %w", err)
	}

	if cmd.json {
		if reqs == nil {
			reqs = []notification.Request{}
		}
		return writeJSON(c, reqs)
	}

	p := printer.Ctx(ctx)
	if len(reqs) == 0 {
		p.Infof("no active notifications")
		return nil
	}
	for _, r := range reqs {
		basic := r.Content.Basic()
		p.Printf("%s  %s %s", r.HashCode, basic.Title, p.Muted(fmt.Sprintf("[%s]", r.SlotType)))
	}
	return nil
}

func (cmd *ActiveCmd) runCount(ctx context.Context, c *cli.Command) error {
	n, err := call(ctx, cmd.flags, cmd.flags.App.Service.GetActiveNotificationCount)
	if err != nil {
		return fmt.Errorf("count active notifications: %w", err)
	}
	_, err = fmt.Fprintln(c.Root().Writer, n)
	return err
}
