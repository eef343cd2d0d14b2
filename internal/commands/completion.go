package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// HashCodeCompleter returns a ShellCompleteFunc that suggests the hash codes
// of active notifications as positional completions. Listing every bundle's
// notifications needs a system caller; without one nothing is suggested.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func HashCodeCompleter(flags *Flags) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if flags.App == nil {
			return
		}

		reqs, err := flags.App.Service.GetAllActiveNotifications(flags.Caller(ctx))
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, r := range reqs {
			_, _ = fmt.Fprintln(w, r.HashCode)
		}
	}
}
