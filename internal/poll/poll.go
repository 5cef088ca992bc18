// Package poll provides the one polling primitive every page uses: a
// cancellable poll-until-terminal loop, plus a batched status poller for
// model deployments. Centralizing this guarantees the cleanup invariant —
// no dangling tickers after a poller stops — is never missed by a page.
package poll

import (
	"context"
	"log/slog"
	"time"
)

// TickFunc runs one poll cycle. Returning done stops the loop; returning an
// error does not — a failed tick is logged and retried on the next one.
type TickFunc func(ctx context.Context) (done bool, err error)

// Until runs fn every interval until it reports done or ctx is cancelled.
// The ticker is always released.
func Until(ctx context.Context, interval time.Duration, fn TickFunc) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			done, err := fn(ctx)
			if err != nil {
				// Swallowed: transient fetch failures must not kill the
				// poller.
				slog.Warn("poll tick failed", "err", err)
				continue
			}
			if done {
				return nil
			}
		}
	}
}
