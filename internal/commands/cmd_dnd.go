package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/dnd"
	"github.com/colonyops/ans/internal/printer"
)

// dndTimeLayouts are accepted for --begin and --end, tried in order.
var dndTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "15:04"}

type DndCmd struct {
	flags *Flags

	typ   string
	begin string
	end   string
	user  int
	json  bool
}

// NewDndCmd creates a new dnd command.
func NewDndCmd(flags *Flags) *DndCmd {
	return &DndCmd{flags: flags}
}

// Register adds the dnd command to the application.
func (cmd *DndCmd) Register(app *cli.Command) *cli.Command {
	userFlag := func() cli.Flag {
		return &cli.IntFlag{Name: "for-user", Usage: "user id (defaults to the caller's user)", Value: -1, Destination: &cmd.user}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:  "dnd",
		Usage: "Manage do-not-disturb windows",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set the do-not-disturb window (system only)",
				UsageText: "ans --system dnd set --type daily --begin 22:00 --end 07:00",
				Description: `Sets the window of a user. Types:

  none     disable do-not-disturb
  once     a single period starting today at --begin
  daily    the --begin to --end time range every day
  clearly  the exact period from --begin to --end; end must be after begin

Times accept RFC 3339, "2006-01-02 15:04" or "15:04" (today, local time).`,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "none, once, daily or clearly", Value: "none", Destination: &cmd.typ},
					&cli.StringFlag{Name: "begin", Usage: "window begin", Destination: &cmd.begin},
					&cli.StringFlag{Name: "end", Usage: "window end", Destination: &cmd.end},
					userFlag(),
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
				},
				Action: cmd.runSet,
			},
			{
				Name:  "get",
				Usage: "Show the do-not-disturb window",
				Flags: []cli.Flag{
					userFlag(),
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
				},
				Action: cmd.runGet,
			},
			{
				Name:  "supported",
				Usage: "Report whether do-not-disturb mode is supported",
				Action: func(ctx context.Context, c *cli.Command) error {
					ok, err := call(ctx, cmd.flags, cmd.flags.App.Service.SupportDoNotDisturbMode)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.Root().Writer, ok)
					return err
				},
			},
		},
	})

	return app
}

func (cmd *DndCmd) userID() int32 {
	if cmd.user < 0 {
		return int32(cmd.flags.UserID)
	}
	return int32(cmd.user)
}

func parseDndTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	for _, layout := range dndTimeLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			continue
		}
		if layout == "15:04" {
			t = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func (cmd *DndCmd) runSet(ctx context.Context, c *cli.Command) error {
	typ, err := dnd.ParseType(cmd.typ)
	if err != nil {
		return err
	}

	now := time.Now()
	begin, err := parseDndTime(cmd.begin, now)
	if err != nil {
		return err
	}
	end, err := parseDndTime(cmd.end, now)
	if err != nil {
		return err
	}

	w, err := call(ctx, cmd.flags, func(ctx context.Context) (dnd.Window, error) {
		return cmd.flags.App.Service.SetDoNotDisturbDate(ctx, cmd.userID(), dnd.Window{Type: typ, Begin: begin, End: end})
	})
	if err != nil {
		return fmt.Errorf("set dnd: %w", err)
	}

	if cmd.json {
		return writeJSON(c, w)
	}
	p := printer.Ctx(ctx)
	p.Successf("do-not-disturb updated")
	printWindow(p, w)
	return nil
}

func (cmd *DndCmd) runGet(ctx context.Context, c *cli.Command) error {
	w, err := call(ctx, cmd.flags, func(ctx context.Context) (dnd.Window, error) {
		return cmd.flags.App.Service.GetDoNotDisturbDate(ctx, cmd.userID())
	})
	if err != nil {
		return fmt.Errorf("get dnd: %w", err)
	}

	if cmd.json {
		return writeJSON(c, w)
	}
	printWindow(printer.Ctx(ctx), w)
	return nil
}

func printWindow(p *printer.Printer, w dnd.Window) {
	p.Field("type", w.Type)
	if w.Type == dnd.TypeNone {
		return
	}
	p.Field("begin", w.Begin.Format(time.RFC3339))
	p.Field("end", w.End.Format(time.RFC3339))
}
