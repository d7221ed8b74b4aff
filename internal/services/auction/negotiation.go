package auction

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"auctionhouse/internal/events"
	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
)

// SellerDecision applies the seller's single post-close choice on an ended
// auction: accept the winning bid, reject it, or counter with a higher
// amount. Counter returns the created offer; accept and reject return nil.
func (s *auctionService) SellerDecision(ctx context.Context, auctionID, sellerID string, d Decision, counterAmount decimal.Decimal) (*models.CounterOffer, error) {
	s.Sweep(ctx)

	a, err := s.store.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	// Ownership misses read as not-found so callers cannot probe other
	// sellers' auctions.
	if a.SellerID != sellerID {
		return nil, store.ErrAuctionNotFound
	}
	if a.Status != models.StatusEnded {
		return nil, ErrNotEnded
	}
	// One decision only: once a counter offer is out, the buyer's response
	// is the next move.
	pending, err := s.hasPendingOffer(ctx, a)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrOfferOutstanding
	}

	switch d {
	case DecisionAccept:
		return nil, s.acceptWinningBid(ctx, a)
	case DecisionReject:
		return nil, s.rejectWinningBid(ctx, a)
	case DecisionCounter:
		return s.counterWinningBid(ctx, a, counterAmount)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDecision, d)
	}
}

func (s *auctionService) hasPendingOffer(ctx context.Context, a *models.Auction) (bool, error) {
	offers, err := s.store.ListCounterOffersForSeller(ctx, a.SellerID)
	if err != nil {
		return false, err
	}
	for _, o := range offers {
		if o.AuctionID == a.ID && o.Status == models.OfferPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *auctionService) acceptWinningBid(ctx context.Context, a *models.Auction) error {
	if a.WinnerID == "" {
		return ErrNoWinner
	}
	ok, err := s.store.TransitionStatus(ctx, a.ID, models.StatusEnded, models.StatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnded
	}
	a.Status = models.StatusCompleted
	final := a.HighestOrStarting().StringFixed(2)

	s.notify(ctx, a.WinnerID, a,
		fmt.Sprintf("Congratulations! Your bid on %s was accepted", a.ItemName),
		events.TypeAuctionCompleted, map[string]any{
			"final_amount": final,
			"status":       "accepted",
		})
	s.publisher.Publish(events.AuctionGroup(a.ID), events.TypeSellerDecision, map[string]any{
		"auction_id":   a.ID,
		"decision":     "accepted",
		"final_amount": final,
		"winner":       a.WinnerID,
	})
	s.publishAdminDecision(a, "accept", final)
	s.dispatchFulfillment(ctx, a)
	return nil
}

func (s *auctionService) rejectWinningBid(ctx context.Context, a *models.Auction) error {
	ok, err := s.store.TransitionStatus(ctx, a.ID, models.StatusEnded, models.StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnded
	}
	a.Status = models.StatusCancelled
	amount := a.HighestOrStarting().StringFixed(2)

	if a.WinnerID != "" {
		s.notify(ctx, a.WinnerID, a,
			fmt.Sprintf("Your bid on %s was rejected", a.ItemName),
			events.TypeBidRejected, map[string]any{
				"bid_amount": amount,
			})
	}
	s.publisher.Publish(events.AuctionGroup(a.ID), events.TypeSellerDecision, map[string]any{
		"auction_id": a.ID,
		"decision":   "rejected",
		"bid_amount": amount,
		"bidder":     a.WinnerID,
	})
	s.publishAdminDecision(a, "reject", amount)
	return nil
}

func (s *auctionService) counterWinningBid(ctx context.Context, a *models.Auction, counterAmount decimal.Decimal) (*models.CounterOffer, error) {
	if a.WinnerID == "" {
		return nil, ErrNoWinner
	}
	if !counterAmount.IsPositive() || !counterAmount.Equal(counterAmount.Round(2)) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, counterAmount)
	}
	originalBid := a.CurrentHighestBid.Decimal
	if !counterAmount.GreaterThan(originalBid) {
		return nil, ErrCounterTooLow
	}

	offer := &models.CounterOffer{
		ID:            uuid.NewString(),
		AuctionID:     a.ID,
		SellerID:      a.SellerID,
		BuyerID:       a.WinnerID,
		OriginalBid:   originalBid,
		CounterAmount: counterAmount,
		Status:        models.OfferPending,
		CreatedAt:     s.now(),
	}
	if err := s.store.CreateCounterOffer(ctx, offer); err != nil {
		return nil, err
	}

	amount := counterAmount.StringFixed(2)
	s.notify(ctx, a.WinnerID, a,
		fmt.Sprintf("Counter offer of $%s received for %s", amount, a.ItemName),
		events.TypeCounterOfferReceived, map[string]any{
			"counter_offer_id": offer.ID,
			"original_bid":     originalBid.StringFixed(2),
			"counter_amount":   amount,
			"seller":           a.SellerID,
		})
	s.publisher.Publish(events.AuctionGroup(a.ID), events.TypeCounterOffer, map[string]any{
		"auction_id":     a.ID,
		"counter_amount": amount,
		"original_bid":   originalBid.StringFixed(2),
		"buyer":          a.WinnerID,
	})
	s.publishAdminDecision(a, "counter", amount)
	return offer, nil
}

// RespondCounterOffer records the buyer's single response. Accept completes
// the auction at the countered price; reject cancels it. A second response
// is refused without mutating anything, and a response against an auction
// that already left ended is refused as expired.
func (s *auctionService) RespondCounterOffer(ctx context.Context, offerID, buyerID string, accept bool) error {
	offer, err := s.store.GetCounterOffer(ctx, offerID)
	if err != nil {
		return err
	}
	if offer.BuyerID != buyerID {
		return store.ErrOfferNotFound
	}
	if offer.Status != models.OfferPending {
		return ErrAlreadyResponded
	}

	a, err := s.store.GetAuction(ctx, offer.AuctionID)
	if err != nil {
		return err
	}
	// The offer only binds while the auction still sits in ended; any path
	// that moved it past ended killed the offer.
	if a.Status != models.StatusEnded {
		return ErrOfferExpired
	}

	newStatus := models.OfferRejected
	if accept {
		newStatus = models.OfferAccepted
	}
	ok, err := s.store.RespondCounterOffer(ctx, offerID, newStatus, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyResponded
	}

	amount := offer.CounterAmount.StringFixed(2)

	if accept {
		ok, err := s.store.CompleteWithPrice(ctx, a.ID, offer.CounterAmount)
		if err != nil {
			return err
		}
		if !ok {
			// Another instance moved the auction between our read and the
			// commit. No completion happened, so no completion side effects.
			return ErrOfferExpired
		}
		a.Status = models.StatusCompleted
		a.CurrentHighestBid = decimal.NewNullDecimal(offer.CounterAmount)

		s.notify(ctx, offer.SellerID, a,
			fmt.Sprintf("Your counter offer for %s was accepted", a.ItemName),
			events.TypeAuctionCompleted, map[string]any{
				"final_amount": amount,
				"status":       "counter_accepted",
				"buyer":        offer.BuyerID,
			})
		s.dispatchFulfillment(ctx, a)
	} else {
		ok, err := s.store.TransitionStatus(ctx, a.ID, models.StatusEnded, models.StatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOfferExpired
		}
		a.Status = models.StatusCancelled

		s.notify(ctx, offer.SellerID, a,
			fmt.Sprintf("Your counter offer for %s was rejected", a.ItemName),
			events.TypeBidRejected, map[string]any{
				"counter_amount": amount,
				"buyer":          offer.BuyerID,
			})
	}

	response := "reject"
	if accept {
		response = "accept"
	}
	s.publisher.Publish(events.AuctionGroup(a.ID), events.TypeCounterOfferResponse, map[string]any{
		"auction_id":     a.ID,
		"response":       response,
		"counter_amount": amount,
		"buyer":          offer.BuyerID,
		"final_status":   a.Status,
	})
	s.publishAdminDecision(a, "counter_"+response, amount)
	return nil
}

func (s *auctionService) GetCounterOffer(ctx context.Context, offerID, buyerID string) (*models.CounterOffer, error) {
	offer, err := s.store.GetCounterOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer.BuyerID != buyerID {
		return nil, store.ErrOfferNotFound
	}
	return offer, nil
}

func (s *auctionService) ListCounterOffers(ctx context.Context, userID string) (*CounterOffers, error) {
	received, err := s.store.ListCounterOffersForBuyer(ctx, userID)
	if err != nil {
		return nil, err
	}
	sent, err := s.store.ListCounterOffersForSeller(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CounterOffers{Received: received, Sent: sent}, nil
}

func (s *auctionService) publishAdminDecision(a *models.Auction, decision, amount string) {
	s.publisher.Publish(events.Admin, events.TypeAdminSellerDecision, map[string]any{
		"auction_id": a.ID,
		"item_name":  a.ItemName,
		"decision":   decision,
		"seller":     a.SellerID,
		"buyer":      a.WinnerID,
		"amount":     amount,
		"timestamp":  s.now(),
	})
}

// dispatchFulfillment triggers the confirmation/invoice side channel on a
// completed auction. Failure is logged, never propagated.
func (s *auctionService) dispatchFulfillment(ctx context.Context, a *models.Auction) {
	if s.confirmer == nil {
		return
	}
	if err := s.confirmer.AuctionCompleted(ctx, a.SellerID, a.WinnerID, a); err != nil {
		zap.L().Error("fulfillment_failed", zap.String("auction_id", a.ID), zap.Error(err))
	}
}
