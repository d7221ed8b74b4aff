// Package sweeper triggers the lifecycle reconciliation pass on a timer, so
// auctions whose window opened or closed between requests still transition
// promptly.
package sweeper

import (
	"context"
	"time"

	"auctionhouse/internal/services/auction"
)

// Run sweeps every interval until ctx is cancelled. The sweep itself never
// returns an error; it logs and continues.
func Run(ctx context.Context, interval time.Duration, svc auction.IAuctionService) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				svc.Sweep(ctx)
			}
		}
	}()
}
