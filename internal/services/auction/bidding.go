package auction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"auctionhouse/internal/events"
	"auctionhouse/internal/models"
)

// PlaceBid validates and commits a single bid. Admission is serialized per
// auction: inside the critical section the authoritative highest bid is
// max(durable, cached), the bid row and the auction's highest/winner are
// committed durably, and only then is the cache written. Notifications and
// event fan-out run after the lock is released so slow delivery never blocks
// other bidders.
func (s *auctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*PlaceBidResult, error) {
	s.Sweep(ctx)

	if bidderID == "" {
		return nil, fmt.Errorf("%w: missing bidder", ErrInvalidAmount)
	}
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	bid, prev, err := s.admit(ctx, auctionID, bidderID, amount)
	if err != nil {
		return nil, err
	}

	s.fanOutBid(ctx, bid, prev)
	return &PlaceBidResult{Bid: bid.placed, NewHighest: bid.placed.Amount}, nil
}

// admittedBid carries what fan-out needs once the lock is gone.
type admittedBid struct {
	placed  *models.Bid
	auction *models.Auction
}

// admit runs the per-auction critical section and returns the committed bid
// plus the winner it displaced.
func (s *auctionService) admit(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*admittedBid, string, error) {
	mu := s.locks.lock(auctionID)
	defer mu.Unlock()

	a, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	if a.Status != models.StatusActive || !a.IsActive(now) {
		return nil, "", ErrAuctionNotActive
	}
	if a.SellerID == bidderID {
		return nil, "", ErrSelfBid
	}

	// The cache is a latency optimization, never the arbiter: the durable
	// value wins whenever the cache is missing, stale or lower.
	authoritative := a.HighestOrStarting()
	if cached, ok := s.cache.Get(ctx, auctionID); ok && cached.GreaterThan(authoritative) {
		authoritative = cached
	}
	minimum := authoritative.Add(a.BidIncrement)
	if amount.LessThan(minimum) {
		return nil, "", &BidTooLowError{Minimum: minimum, CurrentHighest: authoritative}
	}

	bid := &models.Bid{
		ID:        uuid.NewString(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		Timestamp: now,
	}
	ok, err := s.store.CommitBid(ctx, bid, a.CurrentHighestBid)
	if err != nil {
		return nil, "", fmt.Errorf("commit bid on auction %s: %w", auctionID, err)
	}
	if !ok {
		// Another instance advanced the highest bid between our read and
		// write. Report against the fresh baseline.
		fresh, err := s.store.GetAuction(ctx, auctionID)
		if err != nil {
			return nil, "", err
		}
		base := fresh.HighestOrStarting()
		return nil, "", &BidTooLowError{Minimum: base.Add(fresh.BidIncrement), CurrentHighest: base}
	}

	// Durable commit happened-before the cache write, and both complete
	// before the lock is released.
	s.cache.Set(ctx, auctionID, amount)

	return &admittedBid{placed: bid, auction: a}, a.WinnerID, nil
}

// fanOutBid delivers the fire-and-forget side effects of a committed bid:
// outbid notice to the displaced winner, new-bid notice to the seller, and
// the auction/admin broadcasts.
func (s *auctionService) fanOutBid(ctx context.Context, ab *admittedBid, prevWinner string) {
	a, bid := ab.auction, ab.placed
	amount := bid.Amount.StringFixed(2)

	if prevWinner != "" && prevWinner != bid.BidderID {
		s.notify(ctx, prevWinner, a,
			fmt.Sprintf("You have been outbid on %s", a.ItemName),
			events.TypeOutbid, map[string]any{
				"new_bid": amount,
				"bidder":  bid.BidderID,
			})
	}

	s.notify(ctx, a.SellerID, a,
		fmt.Sprintf("New bid of $%s on %s", amount, a.ItemName),
		events.TypeNewBid, map[string]any{
			"new_bid": amount,
			"bidder":  bid.BidderID,
		})

	s.publisher.Publish(events.AuctionGroup(a.ID), events.TypeBidUpdate, map[string]any{
		"auction_id":  a.ID,
		"bid_id":      bid.ID,
		"highest_bid": amount,
		"bidder":      bid.BidderID,
		"timestamp":   bid.Timestamp,
	})
	s.publisher.Publish(events.Admin, events.TypeAdminBidUpdate, map[string]any{
		"auction_id": a.ID,
		"item_name":  a.ItemName,
		"bid_amount": amount,
		"bidder":     bid.BidderID,
		"seller":     a.SellerID,
		"timestamp":  bid.Timestamp,
	})
}
