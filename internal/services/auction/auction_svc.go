package auction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"auctionhouse/internal/bidcache"
	"auctionhouse/internal/events"
	"auctionhouse/internal/fulfillment"
	"auctionhouse/internal/models"
	"auctionhouse/internal/store"
)

// AuctionDTO is the read surface: the stored record plus the derived fields
// callers key off.
type AuctionDTO struct {
	models.Auction
	EndTime  time.Time `json:"end_time"`
	IsActive bool      `json:"is_active"`
}

// CreateAuctionParams is the seller's listing request.
type CreateAuctionParams struct {
	SellerID      string
	ItemName      string
	Description   string
	StartingPrice decimal.Decimal
	BidIncrement  decimal.Decimal
	GoLiveTime    time.Time
	Duration      time.Duration
}

// PlaceBidResult reports a successful admission.
type PlaceBidResult struct {
	Bid        *models.Bid     `json:"bid"`
	NewHighest decimal.Decimal `json:"new_highest_bid"`
}

// Decision is the seller's single post-close choice.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionReject  Decision = "reject"
	DecisionCounter Decision = "counter"
)

// SellerStats summarizes one seller's auctions.
type SellerStats struct {
	Total            int             `json:"total_auctions"`
	Active           int             `json:"active_auctions"`
	Ended            int             `json:"ended_auctions"`
	Completed        int             `json:"completed_auctions"`
	Cancelled        int             `json:"cancelled_auctions"`
	PendingDecisions int             `json:"pending_decisions"`
	PendingOffers    int             `json:"pending_counter_offers"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
}

// SellerDashboard bundles what the seller view renders.
type SellerDashboard struct {
	Auctions      []AuctionDTO          `json:"auctions"`
	Stats         SellerStats           `json:"stats"`
	CounterOffers []models.CounterOffer `json:"counter_offers"`
}

// LiveStats is the staff monitoring snapshot.
type LiveStats struct {
	TotalAuctions       int             `json:"total_auctions"`
	ActiveAuctions      int             `json:"active_auctions"`
	CompletedAuctions   int             `json:"completed_auctions"`
	CancelledAuctions   int             `json:"cancelled_auctions"`
	TotalBids           int             `json:"total_bids"`
	PendingOffers       int             `json:"pending_counter_offers"`
	TotalOffers         int             `json:"total_counter_offers"`
	UnreadNotifications int             `json:"unread_notifications"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	Timestamp           time.Time       `json:"timestamp"`
}

// CounterOffers pairs the offers a user has received with those they sent.
type CounterOffers struct {
	Received []models.CounterOffer `json:"received"`
	Sent     []models.CounterOffer `json:"sent"`
}

type IAuctionService interface {
	CreateAuction(ctx context.Context, p CreateAuctionParams) (*AuctionDTO, error)
	GetAuction(ctx context.Context, id string) (*AuctionDTO, error)
	ListAuctions(ctx context.Context, status models.AuctionStatus, limit, offset int) ([]AuctionDTO, error)
	ListBids(ctx context.Context, auctionID string) ([]models.Bid, error)

	Sweep(ctx context.Context)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (*PlaceBidResult, error)

	SellerDecision(ctx context.Context, auctionID, sellerID string, d Decision, counterAmount decimal.Decimal) (*models.CounterOffer, error)
	RespondCounterOffer(ctx context.Context, offerID, buyerID string, accept bool) error
	GetCounterOffer(ctx context.Context, offerID, buyerID string) (*models.CounterOffer, error)
	ListCounterOffers(ctx context.Context, userID string) (*CounterOffers, error)

	Notifications(ctx context.Context, userID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error

	Dashboard(ctx context.Context, sellerID string) (*SellerDashboard, error)
	Stats(ctx context.Context) (*LiveStats, error)
}

type auctionService struct {
	store     store.Store
	cache     *bidcache.Cache
	publisher events.Publisher
	confirmer fulfillment.Confirmer
	locks     auctionLocks
	now       func() time.Time
}

var _ IAuctionService = (*auctionService)(nil)

func NewAuctionService(st store.Store, cache *bidcache.Cache, pub events.Publisher, conf fulfillment.Confirmer) IAuctionService {
	return &auctionService{
		store:     st,
		cache:     cache,
		publisher: pub,
		confirmer: conf,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *auctionService) toDTO(a *models.Auction) *AuctionDTO {
	return &AuctionDTO{
		Auction:  *a,
		EndTime:  a.EndTime(),
		IsActive: a.IsActive(s.now()),
	}
}

func (s *auctionService) CreateAuction(ctx context.Context, p CreateAuctionParams) (*AuctionDTO, error) {
	if p.SellerID == "" || p.ItemName == "" {
		return nil, fmt.Errorf("%w: missing seller or item name", ErrInvalidAuction)
	}
	if !p.StartingPrice.IsPositive() || !p.BidIncrement.IsPositive() {
		return nil, fmt.Errorf("%w: starting price and increment must be positive", ErrInvalidAuction)
	}
	if p.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidAuction)
	}

	now := s.now()
	a := &models.Auction{
		ID:            uuid.NewString(),
		SellerID:      p.SellerID,
		ItemName:      p.ItemName,
		Description:   p.Description,
		StartingPrice: p.StartingPrice.Round(2),
		BidIncrement:  p.BidIncrement.Round(2),
		GoLiveTime:    p.GoLiveTime.UTC(),
		Duration:      p.Duration,
		Status:        models.StatusPending,
		CreatedAt:     now,
	}
	// Go live immediately when the window already started.
	if a.IsActive(now) {
		a.Status = models.StatusActive
	}
	if err := s.store.CreateAuction(ctx, a); err != nil {
		return nil, err
	}
	return s.toDTO(a), nil
}

func (s *auctionService) GetAuction(ctx context.Context, id string) (*AuctionDTO, error) {
	s.Sweep(ctx)
	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toDTO(a), nil
}

func (s *auctionService) ListAuctions(ctx context.Context, status models.AuctionStatus, limit, offset int) ([]AuctionDTO, error) {
	s.Sweep(ctx)
	auctions, err := s.store.ListAuctions(ctx, status, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]AuctionDTO, 0, len(auctions))
	for i := range auctions {
		out = append(out, *s.toDTO(&auctions[i]))
	}
	return out, nil
}

func (s *auctionService) ListBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if _, err := s.store.GetAuction(ctx, auctionID); err != nil {
		return nil, err
	}
	return s.store.ListBids(ctx, auctionID)
}

func (s *auctionService) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.store.ListUnreadNotifications(ctx, userID)
}

func (s *auctionService) MarkNotificationRead(ctx context.Context, id, userID string) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}

func (s *auctionService) Dashboard(ctx context.Context, sellerID string) (*SellerDashboard, error) {
	s.Sweep(ctx)
	auctions, err := s.store.ListAuctionsBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	offers, err := s.store.ListCounterOffersForSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	stats := SellerStats{Total: len(auctions), TotalRevenue: decimal.Zero}
	dtos := make([]AuctionDTO, 0, len(auctions))
	for i := range auctions {
		a := &auctions[i]
		switch a.Status {
		case models.StatusActive:
			stats.Active++
		case models.StatusEnded:
			stats.Ended++
			if a.WinnerID != "" {
				stats.PendingDecisions++
			}
		case models.StatusCompleted:
			stats.Completed++
			if a.CurrentHighestBid.Valid {
				stats.TotalRevenue = stats.TotalRevenue.Add(a.CurrentHighestBid.Decimal)
			}
		case models.StatusCancelled:
			stats.Cancelled++
		}
		dtos = append(dtos, *s.toDTO(a))
	}
	for _, o := range offers {
		if o.Status == models.OfferPending {
			stats.PendingOffers++
		}
	}
	return &SellerDashboard{Auctions: dtos, Stats: stats, CounterOffers: offers}, nil
}

func (s *auctionService) Stats(ctx context.Context) (*LiveStats, error) {
	s.Sweep(ctx)
	counts, err := s.store.GlobalCounts(ctx)
	if err != nil {
		return nil, err
	}

	// Stored status counts lag the clock between sweeps; recompute effective
	// activity for the live figure.
	active := 0
	if open, err := s.store.ListOpenAuctions(ctx); err == nil {
		now := s.now()
		for i := range open {
			if open[i].IsActive(now) {
				active++
			}
		}
	} else {
		zap.L().Warn("stats_open_auctions", zap.Error(err))
		active = counts.Auctions[models.StatusActive]
	}

	total := 0
	for _, n := range counts.Auctions {
		total += n
	}
	return &LiveStats{
		TotalAuctions:       total,
		ActiveAuctions:      active,
		CompletedAuctions:   counts.Auctions[models.StatusCompleted],
		CancelledAuctions:   counts.Auctions[models.StatusCancelled],
		TotalBids:           counts.Bids,
		PendingOffers:       counts.PendingOffers,
		TotalOffers:         counts.CounterOffers,
		UnreadNotifications: counts.UnreadNotifications,
		TotalRevenue:        counts.CompletedRevenue,
		Timestamp:           s.now(),
	}, nil
}

// notify persists a notification row and mirrors it on the user's private
// event channel. Both halves are best effort.
func (s *auctionService) notify(ctx context.Context, userID string, a *models.Auction, message, eventType string, body map[string]any) {
	n := &models.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		AuctionID: a.ID,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		zap.L().Warn("notification_create_failed",
			zap.String("user_id", userID), zap.String("auction_id", a.ID), zap.Error(err))
	}
	if body == nil {
		body = map[string]any{}
	}
	body["auction_id"] = a.ID
	body["item_name"] = a.ItemName
	body["message"] = message
	s.publisher.Publish(events.UserGroup(userID), eventType, body)
}
