package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auctionhouse/internal/models"
)

func seedAuction(t *testing.T, m *MemoryStore, id string, status models.AuctionStatus) {
	t.Helper()
	require.NoError(t, m.CreateAuction(context.Background(), &models.Auction{
		ID:            id,
		SellerID:      "seller1",
		ItemName:      "item " + id,
		StartingPrice: decimal.NewFromInt(100),
		BidIncrement:  decimal.NewFromInt(10),
		Status:        status,
		CreatedAt:     time.Now().UTC(),
	}))
}

func TestMemoryCommitBidCAS(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	seedAuction(t, m, "a1", models.StatusActive)

	bid := &models.Bid{ID: "b1", AuctionID: "a1", BidderID: "alice", Amount: decimal.NewFromInt(110)}

	t.Run("first_commit_against_null", func(t *testing.T) {
		ok, err := m.CommitBid(ctx, bid, decimal.NullDecimal{})
		require.NoError(t, err)
		require.True(t, ok)

		a, err := m.GetAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, "alice", a.WinnerID)
		require.True(t, a.CurrentHighestBid.Decimal.Equal(decimal.NewFromInt(110)))
	})

	t.Run("stale_null_baseline_refused", func(t *testing.T) {
		b2 := &models.Bid{ID: "b2", AuctionID: "a1", BidderID: "bob", Amount: decimal.NewFromInt(120)}
		ok, err := m.CommitBid(ctx, b2, decimal.NullDecimal{})
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("stale_amount_baseline_refused", func(t *testing.T) {
		b3 := &models.Bid{ID: "b3", AuctionID: "a1", BidderID: "bob", Amount: decimal.NewFromInt(130)}
		ok, err := m.CommitBid(ctx, b3, decimal.NewNullDecimal(decimal.NewFromInt(100)))
		require.NoError(t, err)
		require.False(t, ok)

		a, err := m.GetAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, "alice", a.WinnerID, "refused commit left no trace")
		bids, err := m.ListBids(ctx, "a1")
		require.NoError(t, err)
		require.Len(t, bids, 1)
	})

	t.Run("fresh_baseline_advances", func(t *testing.T) {
		b4 := &models.Bid{ID: "b4", AuctionID: "a1", BidderID: "bob", Amount: decimal.NewFromInt(130)}
		ok, err := m.CommitBid(ctx, b4, decimal.NewNullDecimal(decimal.NewFromInt(110)))
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestMemoryListAuctionsPaging(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a1", "a2", "a3"} {
		seedAuction(t, m, id, models.StatusActive)
	}
	seedAuction(t, m, "a4", models.StatusEnded)

	all, err := m.ListAuctions(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)

	active, err := m.ListAuctions(ctx, models.StatusActive, 10, 0)
	require.NoError(t, err)
	require.Len(t, active, 3)

	page, err := m.ListAuctions(ctx, "", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := m.ListAuctions(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 2)

	empty, err := m.ListAuctions(ctx, "", 2, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemoryRespondCounterOfferOnce(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, m.CreateCounterOffer(ctx, &models.CounterOffer{
		ID: "o1", AuctionID: "a1", SellerID: "seller1", BuyerID: "alice",
		OriginalBid:   decimal.NewFromInt(120),
		CounterAmount: decimal.NewFromInt(150),
		Status:        models.OfferPending,
		CreatedAt:     now,
	}))

	ok, err := m.RespondCounterOffer(ctx, "o1", models.OfferAccepted, now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.RespondCounterOffer(ctx, "o1", models.OfferRejected, now)
	require.NoError(t, err)
	require.False(t, ok)

	o, err := m.GetCounterOffer(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, models.OfferAccepted, o.Status)
	require.NotNil(t, o.RespondedAt)
}
