package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse/internal/models"
)

// MemoryStore is a concurrency-safe in-memory Store. It backs the engine
// tests and is handy for local runs without Postgres; the compare-and-set
// semantics match the SQL implementation.
type MemoryStore struct {
	mu            sync.RWMutex
	auctions      map[string]*models.Auction
	bids          map[string][]models.Bid // auctionID -> bids, append order
	offers        map[string]*models.CounterOffer
	notifications map[string]*models.Notification
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:      make(map[string]*models.Auction),
		bids:          make(map[string][]models.Bid),
		offers:        make(map[string]*models.CounterOffer),
		notifications: make(map[string]*models.Notification),
	}
}

func (m *MemoryStore) CreateAuction(_ context.Context, a *models.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.auctions[a.ID] = &cp
	return nil
}

func (m *MemoryStore) GetAuction(_ context.Context, id string) (*models.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.auctions[id]
	if !ok {
		return nil, ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) ListAuctions(_ context.Context, status models.AuctionStatus, limit, offset int) ([]models.Auction, error) {
	if limit <= 0 {
		limit = 10
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.Auction
	for _, a := range m.auctions {
		if status == "" || a.Status == status {
			all = append(all, *a)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) ListAuctionsBySeller(_ context.Context, sellerID string) ([]models.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Auction
	for _, a := range m.auctions {
		if a.SellerID == sellerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListOpenAuctions(_ context.Context) ([]models.Auction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Auction
	for _, a := range m.auctions {
		if a.Status == models.StatusPending || a.Status == models.StatusActive {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *MemoryStore) TransitionStatus(_ context.Context, id string, from, to models.AuctionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (m *MemoryStore) CompleteWithPrice(_ context.Context, id string, amount decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok || a.Status != models.StatusEnded {
		return false, nil
	}
	a.Status = models.StatusCompleted
	a.CurrentHighestBid = decimal.NewNullDecimal(amount)
	return true, nil
}

func (m *MemoryStore) CommitBid(_ context.Context, bid *models.Bid, prev decimal.NullDecimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[bid.AuctionID]
	if !ok {
		return false, ErrAuctionNotFound
	}
	if a.CurrentHighestBid.Valid != prev.Valid {
		return false, nil
	}
	if prev.Valid && !a.CurrentHighestBid.Decimal.Equal(prev.Decimal) {
		return false, nil
	}
	a.CurrentHighestBid = decimal.NewNullDecimal(bid.Amount)
	a.WinnerID = bid.BidderID
	m.bids[bid.AuctionID] = append(m.bids[bid.AuctionID], *bid)
	return true, nil
}

func (m *MemoryStore) ListBids(_ context.Context, auctionID string) ([]models.Bid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bids := m.bids[auctionID]
	out := make([]models.Bid, len(bids))
	// newest first for display
	for i, b := range bids {
		out[len(bids)-1-i] = b
	}
	return out, nil
}

func (m *MemoryStore) CreateCounterOffer(_ context.Context, o *models.CounterOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.offers[o.ID] = &cp
	return nil
}

func (m *MemoryStore) GetCounterOffer(_ context.Context, id string) (*models.CounterOffer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) RespondCounterOffer(_ context.Context, id string, status models.CounterOfferStatus, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok || o.Status != models.OfferPending {
		return false, nil
	}
	o.Status = status
	t := at
	o.RespondedAt = &t
	return true, nil
}

func (m *MemoryStore) ListCounterOffersForBuyer(_ context.Context, buyerID string) ([]models.CounterOffer, error) {
	return m.listOffers(func(o *models.CounterOffer) bool { return o.BuyerID == buyerID }), nil
}

func (m *MemoryStore) ListCounterOffersForSeller(_ context.Context, sellerID string) ([]models.CounterOffer, error) {
	return m.listOffers(func(o *models.CounterOffer) bool { return o.SellerID == sellerID }), nil
}

func (m *MemoryStore) listOffers(match func(*models.CounterOffer) bool) []models.CounterOffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.CounterOffer
	for _, o := range m.offers {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *MemoryStore) ListUnreadNotifications(_ context.Context, userID string) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) MarkNotificationRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (m *MemoryStore) GlobalCounts(_ context.Context) (*Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := &Counts{Auctions: map[models.AuctionStatus]int{}, CompletedRevenue: decimal.Zero}
	for _, a := range m.auctions {
		c.Auctions[a.Status]++
		if a.Status == models.StatusCompleted && a.CurrentHighestBid.Valid {
			c.CompletedRevenue = c.CompletedRevenue.Add(a.CurrentHighestBid.Decimal)
		}
	}
	for _, bids := range m.bids {
		c.Bids += len(bids)
	}
	for _, o := range m.offers {
		c.CounterOffers++
		if o.Status == models.OfferPending {
			c.PendingOffers++
		}
	}
	for _, n := range m.notifications {
		if !n.IsRead {
			c.UnreadNotifications++
		}
	}
	return c, nil
}
