package auction

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation errors. None of these mutate state; the HTTP layer maps them to
// 4xx responses.
var (
	ErrInvalidAuction   = errors.New("invalid auction parameters")
	ErrAuctionNotActive = errors.New("auction is not active")
	ErrSelfBid          = errors.New("sellers cannot bid on their own auctions")
	ErrInvalidAmount    = errors.New("invalid bid amount")
	ErrNotEnded         = errors.New("auction is not ready for decisions")
	ErrNoWinner         = errors.New("auction has no winner")
	ErrCounterTooLow    = errors.New("counter offer must be higher than original bid")
	ErrInvalidDecision  = errors.New("invalid decision")
	ErrAlreadyResponded = errors.New("counter offer has already been responded to")
	ErrOfferOutstanding = errors.New("a pending counter offer must be resolved first")
	ErrOfferExpired     = errors.New("counter offer is no longer valid")
)

// BidTooLowError reports why a bid was rejected together with the figures
// the bidder needs to retry.
type BidTooLowError struct {
	Minimum        decimal.Decimal
	CurrentHighest decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must be at least $%s", e.Minimum.StringFixed(2))
}
