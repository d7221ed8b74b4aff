package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the stored lifecycle state of an auction. Transitions only
// move forward: pending -> active -> ended -> completed|cancelled.
type AuctionStatus string

const (
	StatusPending   AuctionStatus = "pending"
	StatusActive    AuctionStatus = "active"
	StatusEnded     AuctionStatus = "ended"
	StatusCompleted AuctionStatus = "completed"
	StatusCancelled AuctionStatus = "cancelled"
)

// Terminal reports whether no further transition can leave the status.
func (s AuctionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Auction is the aggregate root. Bid, CounterOffer and Notification rows each
// reference exactly one auction and are never mutated by it.
type Auction struct {
	ID                string              `json:"id"`
	SellerID          string              `json:"seller_id"`
	ItemName          string              `json:"item_name"`
	Description       string              `json:"description"`
	StartingPrice     decimal.Decimal     `json:"starting_price"`
	BidIncrement      decimal.Decimal     `json:"bid_increment"`
	GoLiveTime        time.Time           `json:"go_live_time"`
	Duration          time.Duration       `json:"duration"`
	Status            AuctionStatus       `json:"status"`
	CurrentHighestBid decimal.NullDecimal `json:"current_highest_bid"`
	WinnerID          string              `json:"winner_id,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// EndTime is derived and immutable once the auction is created.
func (a *Auction) EndTime() time.Time {
	return a.GoLiveTime.Add(a.Duration)
}

// IsActive recomputes effective activity from real time. The stored status is
// only the last sweep's conclusion and may lag the clock.
func (a *Auction) IsActive(now time.Time) bool {
	if a.Status != StatusPending && a.Status != StatusActive {
		return false
	}
	return !now.Before(a.GoLiveTime) && now.Before(a.EndTime())
}

// HighestOrStarting returns the base amount the next bid competes against.
func (a *Auction) HighestOrStarting() decimal.Decimal {
	if a.CurrentHighestBid.Valid {
		return a.CurrentHighestBid.Decimal
	}
	return a.StartingPrice
}

// Bid is an immutable, append-only record within an auction.
type Bid struct {
	ID        string          `json:"id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// CounterOfferStatus tracks the single buyer response to a counter offer.
type CounterOfferStatus string

const (
	OfferPending  CounterOfferStatus = "pending"
	OfferAccepted CounterOfferStatus = "accepted"
	OfferRejected CounterOfferStatus = "rejected"
)

// CounterOffer is created by the seller after an auction ends with a winner
// and mutated exactly once by the buyer's response.
type CounterOffer struct {
	ID            string             `json:"id"`
	AuctionID     string             `json:"auction_id"`
	SellerID      string             `json:"seller_id"`
	BuyerID       string             `json:"buyer_id"`
	OriginalBid   decimal.Decimal    `json:"original_bid"`
	CounterAmount decimal.Decimal    `json:"counter_amount"`
	Status        CounterOfferStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	RespondedAt   *time.Time         `json:"responded_at,omitempty"`
}

// Notification is created by any transition that affects a party; only its
// is_read flag is ever mutated afterwards.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AuctionID string    `json:"auction_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// User mirrors what the identity provider resolves for a caller.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Staff    bool   `json:"staff"`
}
