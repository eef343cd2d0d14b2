package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/slot"
	"github.com/colonyops/ans/internal/printer"
)

type SlotCmd struct {
	flags *Flags

	// set flags
	level       string
	description string
	sound       string
	vibration   []int64
	vibrate     bool
	badge       bool
	bypassDnd   bool
	enabled     bool

	all   bool
	count bool
	json  bool
}

// NewSlotCmd creates a new slot command.
func NewSlotCmd(flags *Flags) *SlotCmd {
	return &SlotCmd{flags: flags}
}

// Register adds the slot command to the application.
func (cmd *SlotCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "slot",
		Usage: "Manage notification slots",
		Description: `Slots hold the delivery policy (level, sound, vibration, badge and DND
bypass) of one slot type for a bundle.

Types: social_communication, service_information, content_information, other.`,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add or overwrite slots with the type defaults",
				UsageText: "ans slot add <type> [type...]",
				Action:    cmd.runAdd,
			},
			{
				Name:      "get",
				Usage:     "Show one slot of the calling bundle",
				UsageText: "ans slot get <type>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
				},
				Action: cmd.runGet,
			},
			{
				Name:      "ls",
				Usage:     "List slots of the calling bundle, or of another bundle (system only)",
				UsageText: "ans slot ls [bundle] [--count]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "count", Usage: "only print the number of slots", Destination: &cmd.count},
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
				},
				Action: cmd.runList,
			},
			{
				Name:      "set",
				Usage:     "Update fields of a bundle's slot (system only)",
				UsageText: "ans --system slot set <bundle> <type> [--level high] [--sound file] ...",
				Description: `Merges the given fields into the slot, creating it from the type defaults
when it does not exist. Fields that are not given keep their value.`,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "level", Usage: "none, min, low, default or high", Destination: &cmd.level},
					&cli.StringFlag{Name: "description", Destination: &cmd.description},
					&cli.StringFlag{Name: "sound", Usage: "sound file", Destination: &cmd.sound},
					&cli.Int64SliceFlag{Name: "vibration", Usage: "vibration pattern in milliseconds (repeatable)", Destination: &cmd.vibration},
					&cli.BoolFlag{Name: "vibrate", Usage: "enable vibration", Destination: &cmd.vibrate},
					&cli.BoolFlag{Name: "badge", Usage: "show a badge", Destination: &cmd.badge},
					&cli.BoolFlag{Name: "bypass-dnd", Usage: "deliver during do-not-disturb", Destination: &cmd.bypassDnd},
					&cli.BoolFlag{Name: "enabled", Usage: "allow publishing to the slot", Destination: &cmd.enabled},
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
				},
				Action: cmd.runSet,
			},
			{
				Name:      "rm",
				Usage:     "Remove slots of the calling bundle",
				UsageText: "ans slot rm <type> | --all",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "remove every slot", Destination: &cmd.all},
				},
				Action: cmd.runRemove,
			},
		},
	})

	return app
}

func parseTypes(args []string) ([]slot.Type, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("slot type is required")
	}
	types := make([]slot.Type, 0, len(args))
	for _, a := range args {
		t, err := slot.ParseType(a)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func (cmd *SlotCmd) runAdd(ctx context.Context, c *cli.Command) error {
	types, err := parseTypes(c.Args().Slice())
	if err != nil {
		return err
	}

	svc := cmd.flags.App.Service
	if len(types) == 1 {
		err = run(ctx, cmd.flags, func(ctx context.Context) error { return svc.AddSlotByType(ctx, types[0]) })
	} else {
		slots := make([]slot.Slot, 0, len(types))
		for _, t := range types {
			slots = append(slots, slot.New(t))
		}
		err = run(ctx, cmd.flags, func(ctx context.Context) error { return svc.AddSlots(ctx, slots) })
	}
	if err != nil {
		return fmt.Errorf("add slot: %w", err)
	}

	printer.Ctx(ctx).Successf("added %d slot(s)", len(types))
	return nil
}

func (cmd *SlotCmd) runGet(ctx context.Context, c *cli.Command) error {
	types, err := parseTypes(c.Args().Slice())
	if err != nil {
		return err
	}

	s, err := call(ctx, cmd.flags, func(ctx context.Context) (slot.Slot, error) {
		return cmd.flags.App.Service.GetSlot(ctx, types[0])
	})
	if err != nil {
		return fmt.Errorf("get slot: %w", err)
	}

	if cmd.json {
		return writeJSON(c, s)
	}
	printSlot(printer.Ctx(ctx), s)
	return nil
}

func (cmd *SlotCmd) runList(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.App.Service
	bundle := c.Args().First()

	if cmd.count {
		n, err := call(ctx, cmd.flags, func(ctx context.Context) (int, error) {
			if bundle == "" {
				slots, err := svc.GetSlots(ctx)
				return len(slots), err
			}
			return svc.GetSlotNumByBundle(ctx, bundle)
		})
		if err != nil {
			return fmt.Errorf("count slots: %w", err)
		}
		_, err = fmt.Fprintln(c.Root().Writer, n)
		return err
	}

	slots, err := call(ctx, cmd.flags, func(ctx context.Context) ([]slot.Slot, error) {
		if bundle == "" {
			return svc.GetSlots(ctx)
		}
		return svc.GetSlotsByBundle(ctx, bundle)
	})
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}

	if cmd.json {
		if slots == nil {
			slots = []slot.Slot{}
		}
		return writeJSON(c, slots)
	}

	p := printer.Ctx(ctx)
	if len(slots) == 0 {
		p.Infof("no slots")
		return nil
	}
	for i, s := range slots {
		if i > 0 {
			p.Printf("")
		}
		printSlot(p, s)
	}
	return nil
}

func (cmd *SlotCmd) runSet(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) != 2 {
		return fmt.Errorf("usage: ans slot set <bundle> <type>")
	}
	t, err := slot.ParseType(args[1])
	if err != nil {
		return err
	}

	p := slot.Patch{Type: t}
	if c.IsSet("level") {
		lvl, err := slot.ParseLevel(cmd.level)
		if err != nil {
			return err
		}
		p.Level = &lvl
	}
	if c.IsSet("description") {
		p.Description = &cmd.description
	}
	if c.IsSet("sound") {
		p.Sound = &cmd.sound
	}
	if c.IsSet("vibration") {
		p.VibrationValues = &cmd.vibration
	}
	if c.IsSet("vibrate") {
		p.VibrationEnabled = &cmd.vibrate
	}
	if c.IsSet("badge") {
		p.BadgeFlag = &cmd.badge
	}
	if c.IsSet("bypass-dnd") {
		p.BypassDnd = &cmd.bypassDnd
	}
	if c.IsSet("enabled") {
		disabled := !cmd.enabled
		p.Disabled = &disabled
	}

	s, err := call(ctx, cmd.flags, func(ctx context.Context) (slot.Slot, error) {
		return cmd.flags.App.Service.SetSlotByBundle(ctx, args[0], p)
	})
	if err != nil {
		return fmt.Errorf("set slot: %w", err)
	}

	if cmd.json {
		return writeJSON(c, s)
	}
	printSlot(printer.Ctx(ctx), s)
	return nil
}

func (cmd *SlotCmd) runRemove(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.App.Service
	p := printer.Ctx(ctx)

	if cmd.all {
		if err := run(ctx, cmd.flags, svc.RemoveAllSlots); err != nil {
			return fmt.Errorf("remove slots: %w", err)
		}
		p.Successf("removed all slots")
		return nil
	}

	types, err := parseTypes(c.Args().Slice())
	if err != nil {
		return err
	}
	for _, t := range types {
		if err := run(ctx, cmd.flags, func(ctx context.Context) error { return svc.RemoveSlot(ctx, t) }); err != nil {
			return fmt.Errorf("remove slot %s: %w", t, err)
		}
		p.Successf("removed slot %s", t)
	}
	return nil
}

func printSlot(p *printer.Printer, s slot.Slot) {
	p.Printf("%s", p.Accent("info", s.Type.String()))
	p.Field("level", s.Level)
	if s.Description != "" {
		p.Field("description", s.Description)
	}
	p.Field("sound", s.SoundOrEmpty())
	p.Field("vibration", s.VibrationValues)
	if s.VibrationEnabled != nil {
		p.Field("vibrate", *s.VibrationEnabled)
	}
	p.Field("badge", s.BadgeFlag)
	p.Field("bypass dnd", s.BypassDnd)
	p.Field("enabled", !s.Disabled)
}
