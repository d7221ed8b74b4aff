package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse/internal/models"
)

// Record-level errors returned by every Store implementation.
var (
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrOfferNotFound        = errors.New("counter offer not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Counts aggregates per-status auction totals plus the global figures the
// admin dashboard reports.
type Counts struct {
	Auctions            map[models.AuctionStatus]int
	Bids                int
	CounterOffers       int
	PendingOffers       int
	UnreadNotifications int
	CompletedRevenue    decimal.Decimal
}

// Store is the durable source of truth. Highest-bid and status updates are
// compare-and-set so concurrent writers cannot clobber each other; the
// boolean result reports whether the expected prior state still held.
type Store interface {
	CreateAuction(ctx context.Context, a *models.Auction) error
	GetAuction(ctx context.Context, id string) (*models.Auction, error)
	ListAuctions(ctx context.Context, status models.AuctionStatus, limit, offset int) ([]models.Auction, error)
	ListAuctionsBySeller(ctx context.Context, sellerID string) ([]models.Auction, error)
	// ListOpenAuctions returns the non-terminal auctions the sweep inspects.
	ListOpenAuctions(ctx context.Context) ([]models.Auction, error)

	// TransitionStatus moves the auction from one status to another only if
	// it is still in the expected source status.
	TransitionStatus(ctx context.Context, id string, from, to models.AuctionStatus) (bool, error)
	// CompleteWithPrice is the counter-offer acceptance commit: ended ->
	// completed with the highest bid replaced by the agreed amount.
	CompleteWithPrice(ctx context.Context, id string, amount decimal.Decimal) (bool, error)

	// CommitBid appends the bid and advances the auction's highest bid and
	// winner in one atomic step, conditional on the previous highest still
	// being prev.
	CommitBid(ctx context.Context, bid *models.Bid, prev decimal.NullDecimal) (bool, error)
	ListBids(ctx context.Context, auctionID string) ([]models.Bid, error)

	CreateCounterOffer(ctx context.Context, o *models.CounterOffer) error
	GetCounterOffer(ctx context.Context, id string) (*models.CounterOffer, error)
	// RespondCounterOffer flips a pending offer exactly once.
	RespondCounterOffer(ctx context.Context, id string, status models.CounterOfferStatus, at time.Time) (bool, error)
	ListCounterOffersForBuyer(ctx context.Context, buyerID string) ([]models.CounterOffer, error)
	ListCounterOffersForSeller(ctx context.Context, sellerID string) ([]models.CounterOffer, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListUnreadNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error

	GlobalCounts(ctx context.Context) (*Counts, error)
}
