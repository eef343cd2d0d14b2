package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/journal"
	"github.com/colonyops/ans/internal/printer"
)

type JournalCmd struct {
	flags *Flags

	limit int
	json  bool

	// watch flags
	interval time.Duration
	timeout  time.Duration
}

// NewJournalCmd creates the journal and watch commands.
func NewJournalCmd(flags *Flags) *JournalCmd {
	return &JournalCmd{flags: flags}
}

// Register adds the journal and watch commands to the application.
func (cmd *JournalCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:  "journal",
			Usage: "Inspect the delivery journal",
			Description: `Every published, removed and settings event is appended to the journal.
Entries are kept until cleared.`,
			Commands: []*cli.Command{
				{
					Name:      "ls",
					Usage:     "List journal entries, newest first",
					UsageText: "ans journal ls [--limit N] [--json]",
					Flags: []cli.Flag{
						&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum number of entries", Value: 50, Destination: &cmd.limit},
						&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
					},
					Action: cmd.runList,
				},
				{
					Name:   "clear",
					Usage:  "Delete every journal entry",
					Action: cmd.runClear,
				},
			},
		},
		&cli.Command{
			Name:      "watch",
			Usage:     "Follow the delivery journal",
			UsageText: "ans watch [--interval 500ms] [--timeout 1m]",
			Description: `Prints journal entries as they are written by any ans process.

Output is styled on a terminal and one JSON object per line otherwise.`,
			Flags: []cli.Flag{
				&cli.DurationFlag{Name: "interval", Usage: "poll interval", Value: 500 * time.Millisecond, Destination: &cmd.interval},
				&cli.DurationFlag{Name: "timeout", Usage: "stop after this long (0 waits forever)", Destination: &cmd.timeout},
				&cli.BoolFlag{Name: "json", Usage: "force JSON output", Destination: &cmd.json},
			},
			Action: cmd.runWatch,
		},
	)

	return app
}

func (cmd *JournalCmd) runList(ctx context.Context, c *cli.Command) error {
	entries, err := cmd.flags.App.Journal.List(ctx, journal.ListOptions{Limit: cmd.limit})
	if err != nil {
		return fmt.Errorf("list journal: %w", err)
	}

	if cmd.json {
		if entries == nil {
			entries = []journal.Entry{}
		}
		return writeJSON(c, entries)
	}

	p := printer.Ctx(ctx)
	if len(entries) == 0 {
		p.Infof("journal is empty")
		return nil
	}
	for _, e := range entries {
		printEntry(p, e)
	}
	return nil
}

func (cmd *JournalCmd) runClear(ctx context.Context, c *cli.Command) error {
	n, err := cmd.flags.App.Journal.Count(ctx)
	if err != nil {
		return fmt.Errorf("count journal: %w", err)
	}
	if err := cmd.flags.App.Journal.Clear(ctx); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	printer.Ctx(ctx).Successf("cleared %d journal entries", n)
	return nil
}

func (cmd *JournalCmd) runWatch(ctx context.Context, c *cli.Command) error {
	if cmd.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.timeout)
		defer cancel()
	}

	store := cmd.flags.App.Journal

	// Start after the newest entry so only new events are printed.
	var last int64
	latest, err := store.List(ctx, journal.ListOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("list journal: %w", err)
	}
	if len(latest) > 0 {
		last = latest[0].ID
	}

	p := printer.Ctx(ctx)
	emit := cmd.emitter(c.Root().Writer, p)

	ticker := time.NewTicker(cmd.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if cmd.timeout > 0 {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			entries, err := store.List(ctx, journal.ListOptions{AfterID: last})
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				return fmt.Errorf("list journal: %w", err)
			}
			for _, e := range entries {
				if err := emit(e); err != nil {
					return err
				}
				last = e.ID
			}
		}
	}
}

func (cmd *JournalCmd) emitter(w io.Writer, p *printer.Printer) func(journal.Entry) error {
	if cmd.json || !p.Styled() {
		enc := json.NewEncoder(w)
		return func(e journal.Entry) error { return enc.Encode(e) }
	}
	return func(e journal.Entry) error {
		printEntry(p, e)
		return nil
	}
}

func printEntry(p *printer.Printer, e journal.Entry) {
	severity := "info"
	switch e.Kind {
	case journal.KindConsume:
		severity = "success"
	case journal.KindCancel:
		severity = "warn"
	}

	subject := e.Bundle
	if subject == "" {
		subject = fmt.Sprintf("user %d", e.UserID)
	}

	p.Printf("%s %s %s %s",
		p.Muted(e.CreatedAt.Local().Format(time.TimeOnly)),
		p.Accent(severity, fmt.Sprintf("%-8s", e.Kind)),
		subject,
		e.Message,
	)
}
