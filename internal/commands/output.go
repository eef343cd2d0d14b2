package commands

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ans/pkg/future"
	"github.com/colonyops/ans/pkg/iojson"
)

// callTimeout bounds a single service call made by a command.
const callTimeout = 30 * time.Second

// call runs fn against the service with the caller identity from flags and
// waits for its result.
func call[T any](ctx context.Context, flags *Flags, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(flags.Caller(ctx), callTimeout)
	defer cancel()

	return future.Go(ctx, fn).Await(ctx)
}

// run is call for operations without a result.
func run(ctx context.Context, flags *Flags, fn func(context.Context) error) error {
	_, err := call(ctx, flags, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func writeJSON(c *cli.Command, v any) error {
	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, v)
}
