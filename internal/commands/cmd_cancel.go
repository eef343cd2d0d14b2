package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/notification"
	"github.com/colonyops/ans/internal/printer"
)

type CancelCmd struct {
	flags *Flags

	id     int
	label  string
	all    bool
	group  string
	asUser int

	// remove flags
	reason      string
	removeAll   bool
	removeGroup string
}

// NewCancelCmd creates the cancel and remove commands.
func NewCancelCmd(flags *Flags) *CancelCmd {
	return &CancelCmd{flags: flags, asUser: -1}
}

// Register adds the cancel and remove commands to the application.
func (cmd *CancelCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "cancel",
			Usage:     "Cancel notifications of the calling bundle",
			UsageText: "ans cancel --id <id> [--label <label>] | --all | --group <name>",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "id", Usage: "notification id", Destination: &cmd.id},
				&cli.StringFlag{Name: "label", Usage: "notification label", Destination: &cmd.label},
				&cli.BoolFlag{Name: "all", Usage: "cancel every active notification", Destination: &cmd.all},
				&cli.StringFlag{Name: "group", Usage: "cancel every notification of the group", Destination: &cmd.group},
				&cli.IntFlag{Name: "as-user", Usage: "cancel a notification published for another user id", Value: -1, Destination: &cmd.asUser},
			},
			Action: cmd.runCancel,
		},
		&cli.Command{
			Name:      "remove",
			Aliases:   []string{"rm"},
			Usage:     "Remove notifications of any bundle (system only)",
			UsageText: "ans --system remove <hash-code> [--reason click] | --all [bundle] | --group <name> <bundle>",
			Description: `Removes notifications on behalf of the system.

Unremovable notifications are refused when removed by hash code and skipped
when removing in bulk.`,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "reason", Usage: "removal reason (click, cancel, cancel_all, ...)", Value: "cancel", Destination: &cmd.reason},
				&cli.BoolFlag{Name: "all", Usage: "remove every notification of the bundle, or of all bundles", Destination: &cmd.removeAll},
				&cli.StringFlag{Name: "group", Usage: "remove the group of the bundle", Destination: &cmd.removeGroup},
			},
			ShellComplete: HashCodeCompleter(cmd.flags),
			Action:        cmd.runRemove,
		},
	)

	return app
}

func (cmd *CancelCmd) runCancel(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.App.Service
	p := printer.Ctx(ctx)

	switch {
	case cmd.all:
		if err := run(ctx, cmd.flags, svc.CancelAll); err != nil {
			return fmt.Errorf("cancel all: %w", err)
		}
		p.Successf("canceled all notifications of %s", cmd.flags.Bundle)
	case cmd.group != "":
		if err := run(ctx, cmd.flags, func(ctx context.Context) error { return svc.CancelGroup(ctx, cmd.group) }); err != nil {
			return fmt.Errorf("cancel group: %w", err)
		}
		p.Successf("canceled group %s", cmd.group)
	default:
		if !c.IsSet("id") {
			return fmt.Errorf("one of --id, --all or --group is required")
		}
		err := run(ctx, cmd.flags, func(ctx context.Context) error {
			if cmd.asUser >= 0 {
				return svc.CancelAsUser(ctx, int32(cmd.id), cmd.label, int32(cmd.asUser))
			}
			return svc.Cancel(ctx, int32(cmd.id), cmd.label)
		})
		if err != nil {
			return fmt.Errorf("cancel: %w", err)
		}
		p.Successf("canceled notification %d", cmd.id)
	}
	return nil
}

func (cmd *CancelCmd) runRemove(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.App.Service
	p := printer.Ctx(ctx)
	arg := c.Args().First()

	switch {
	case cmd.removeAll:
		if err := run(ctx, cmd.flags, func(ctx context.Context) error { return svc.RemoveAll(ctx, arg) }); err != nil {
			return fmt.Errorf("remove all: %w", err)
		}
		p.Successf("removed all removable notifications")
	case cmd.removeGroup != "":
		if err := run(ctx, cmd.flags, func(ctx context.Context) error { return svc.RemoveGroupByBundle(ctx, arg, cmd.removeGroup) }); err != nil {
			return fmt.Errorf("remove group: %w", err)
		}
		p.Successf("removed group %s of %s", cmd.removeGroup, arg)
	default:
		if arg == "" {
			return fmt.Errorf("hash code is required")
		}
		reason, err := notification.ParseReason(cmd.reason)
		if err != nil {
			return err
		}
		if err := run(ctx, cmd.flags, func(ctx context.Context) error { return svc.Remove(ctx, arg, reason) }); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
		p.Successf("removed %s", arg)
	}
	return nil
}
