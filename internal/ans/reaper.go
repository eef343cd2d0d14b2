package ans

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunReaper periodically removes notifications whose auto-delete time has
// passed. It blocks until the context is cancelled.
func RunReaper(ctx context.Context, svc *Service, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.SweepExpired(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("notification sweep failed")
				continue
			}
			if n > 0 {
				log.Debug().Int("count", n).Msg("expired notifications removed")
			}
		}
	}
}
