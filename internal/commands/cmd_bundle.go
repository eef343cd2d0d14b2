package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/internal/core/bundle"
	"github.com/colonyops/ans/internal/printer"
)

type BundleCmd struct {
	flags *Flags
	user  int
	json  bool
}

// NewBundleCmd creates a new bundle command.
func NewBundleCmd(flags *Flags) *BundleCmd {
	return &BundleCmd{flags: flags}
}

// Register adds the bundle command to the application.
func (cmd *BundleCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "bundle",
		Usage: "Manage per-bundle notification settings",
		Commands: []*cli.Command{
			{
				Name:      "enable",
				Usage:     "Enable or disable notifications of a bundle (system only)",
				UsageText: "ans --system bundle enable <bundle> <true|false>",
				Action: cmd.toggle("notifications", func(ctx context.Context, name string, on bool) error {
					return cmd.flags.App.Service.EnableNotification(ctx, name, on)
				}),
			},
			{
				Name:      "badge",
				Usage:     "Show or hide badges of a bundle (system only)",
				UsageText: "ans --system bundle badge <bundle> <true|false>",
				Action: cmd.toggle("badge", func(ctx context.Context, name string, on bool) error {
					return cmd.flags.App.Service.DisplayBadge(ctx, name, on)
				}),
			},
			{
				Name:      "distributed",
				Usage:     "Enable or disable distributed delivery of a bundle, or of the device when no bundle is given (system only)",
				UsageText: "ans --system bundle distributed [bundle] <true|false>",
				Action:    cmd.runDistributed,
			},
			{
				Name:   "request",
				Usage:  "Ask for notifications of the calling bundle to be enabled",
				Action: cmd.runRequest,
			},
			{
				Name:      "status",
				Usage:     "Show bundle settings",
				UsageText: "ans bundle status [bundle] [--json]",
				Description: `Without a bundle, prints whether the calling bundle may publish and the
device settings. With a bundle, or with --system and no bundle, prints
stored settings (system only).`,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "for-user", Usage: "user id to query (system only)", Value: -1, Destination: &cmd.user},
					&cli.BoolFlag{Name: "json", Usage: "output as JSON", Destination: &cmd.json},
				},
				Action: cmd.runStatus,
			},
		},
	})

	return app
}

func (cmd *BundleCmd) toggle(what string, fn func(ctx context.Context, name string, on bool) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		args := c.Args().Slice()
		if len(args) != 2 {
			return fmt.Errorf("expected <bundle> <true|false>")
		}
		on, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		if err := run(ctx, cmd.flags, func(ctx context.Context) error { return fn(ctx, args[0], on) }); err != nil {
			return fmt.Errorf("set %s: %w", what, err)
		}
		printer.Ctx(ctx).Successf("%s of %s set to %t", what, args[0], on)
		return nil
	}
}

func (cmd *BundleCmd) runDistributed(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.App.Service
	args := c.Args().Slice()

	switch len(args) {
	case 1:
		on, err := strconv.ParseBool(args[0])
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}
		if err := run(ctx, cmd.flags, func(ctx context.Context) error { return svc.EnableDistributed(ctx, on) }); err != nil {
			return fmt.Errorf("set distributed: %w", err)
		}
		printer.Ctx(ctx).Successf("device distributed delivery set to %t", on)
		return nil
	case 2:
		return cmd.toggle("distributed delivery", svc.EnableDistributedByBundle)(ctx, c)
	default:
		return fmt.Errorf("expected [bundle] <true|false>")
	}
}

func (cmd *BundleCmd) runRequest(ctx context.Context, c *cli.Command) error {
	granted, err := call(ctx, cmd.flags, cmd.flags.App.Service.RequestEnableNotification)
	if err != nil {
		return fmt.Errorf("request enable: %w", err)
	}

	p := printer.Ctx(ctx)
	if granted {
		p.Successf("notifications are enabled for %s", cmd.flags.Bundle)
		return nil
	}
	p.Warnf("notifications remain disabled for %s", cmd.flags.Bundle)
	return nil
}

// callerStatus is the status visible to any caller.
type callerStatus struct {
	Bundle      string `json:"bundle"`
	Enabled     bool   `json:"enabled"`
	Distributed bool   `json:"distributed"`
}

func (cmd *BundleCmd) runStatus(ctx context.Context, c *cli.Command) error {
	svc := cmd.flags.App.Service
	name := c.Args().First()
	p := printer.Ctx(ctx)

	switch {
	case name != "":
		type bundleStatus struct {
			Bundle      string `json:"bundle"`
			UserID      int32  `json:"userId"`
			Enabled     bool   `json:"enabled"`
			Badge       bool   `json:"badge"`
			Distributed bool   `json:"distributed"`
		}

		st, err := call(ctx, cmd.flags, func(ctx context.Context) (bundleStatus, error) {
			out := bundleStatus{Bundle: name, UserID: int32(cmd.flags.UserID)}
			if cmd.user >= 0 {
				out.UserID = int32(cmd.user)
			}

			var err error
			if out.Enabled, err = svc.IsNotificationEnabledForUser(ctx, name, out.UserID); err != nil {
				return out, err
			}
			if out.Badge, err = svc.IsBadgeDisplayed(ctx, name); err != nil {
				return out, err
			}
			out.Distributed, err = svc.IsDistributedEnabledByBundle(ctx, name)
			return out, err
		})
		if err != nil {
			return fmt.Errorf("bundle status: %w", err)
		}

		if cmd.json {
			return writeJSON(c, st)
		}
		p.Printf("%s", p.Accent("info", st.Bundle))
		p.Field("user", st.UserID)
		p.Field("enabled", st.Enabled)
		p.Field("badge", st.Badge)
		p.Field("distributed", st.Distributed)
		return nil

	case cmd.flags.System:
		settings, err := call(ctx, cmd.flags, svc.BundleSettings)
		if err != nil {
			return fmt.Errorf("bundle settings: %w", err)
		}

		if cmd.json {
			if settings == nil {
				settings = map[string]bundle.Settings{}
			}
			return writeJSON(c, settings)
		}
		if len(settings) == 0 {
			p.Infof("no bundle settings stored")
			return nil
		}
		for _, name := range slices.Sorted(maps.Keys(settings)) {
			st := settings[name]
			p.Printf("%s  enabled=%t badge=%t distributed=%t", p.Accent("info", name), st.Enabled, st.Badge, st.Distributed)
		}
		return nil

	default:
		st, err := call(ctx, cmd.flags, func(ctx context.Context) (callerStatus, error) {
			out := callerStatus{Bundle: cmd.flags.Bundle}
			var err error
			if out.Enabled, err = svc.IsNotificationEnabled(ctx); err != nil {
				return out, err
			}
			out.Distributed, err = svc.IsDistributedEnabled(ctx)
			return out, err
		})
		if err != nil {
			return fmt.Errorf("bundle status: %w", err)
		}

		if cmd.json {
			return writeJSON(c, st)
		}
		p.Printf("%s", p.Accent("info", st.Bundle))
		p.Field("enabled", st.Enabled)
		p.Field("distributed", st.Distributed)
		return nil
	}
}
