package auction

import (
	"context"

	"go.uber.org/zap"

	"auctionhouse/internal/events"
	"auctionhouse/internal/models"
)

// Sweep applies the two time-based transitions to every non-terminal
// auction: pending -> active once the live window opens, active -> ended once
// it closes. Both transitions are compare-and-set on the source status, so
// concurrent sweeps re-applying them are no-ops. Sweep never fails the
// surrounding operation; store and publish errors are logged and skipped.
func (s *auctionService) Sweep(ctx context.Context) {
	open, err := s.store.ListOpenAuctions(ctx)
	if err != nil {
		zap.L().Warn("sweep_list_failed", zap.Error(err))
		return
	}
	now := s.now()

	for i := range open {
		a := &open[i]
		switch a.Status {
		case models.StatusPending:
			// Only activate auctions whose window is still open.
			if !now.Before(a.GoLiveTime) && now.Before(a.EndTime()) {
				ok, err := s.store.TransitionStatus(ctx, a.ID, models.StatusPending, models.StatusActive)
				if err != nil {
					zap.L().Warn("sweep_activate_failed", zap.String("auction_id", a.ID), zap.Error(err))
					continue
				}
				if ok {
					s.publisher.Publish(events.AuctionGroup(a.ID), events.TypeStatusUpdate, map[string]any{
						"auction_id": a.ID,
						"old_status": models.StatusPending,
						"new_status": models.StatusActive,
					})
				}
			}
		case models.StatusActive:
			if now.Before(a.EndTime()) {
				continue
			}
			ok, err := s.store.TransitionStatus(ctx, a.ID, models.StatusActive, models.StatusEnded)
			if err != nil {
				zap.L().Warn("sweep_end_failed", zap.String("auction_id", a.ID), zap.Error(err))
				continue
			}
			if !ok {
				continue // another sweep got there first
			}
			s.cache.Drop(ctx, a.ID)

			// winner is null, not "", when nobody bid.
			var winner any
			if a.WinnerID != "" {
				winner = a.WinnerID
			}
			s.publisher.Publish(events.AuctionGroup(a.ID), events.TypeAuctionEnd, map[string]any{
				"auction_id": a.ID,
				"final_bid":  a.HighestOrStarting().StringFixed(2),
				"winner":     winner,
			})
		}
	}
}
