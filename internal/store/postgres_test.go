package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"auctionhouse/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

var auctionRowColumns = []string{
	"id", "seller_id", "item_name", "description", "starting_price",
	"bid_increment", "go_live_time", "duration_seconds", "status",
	"current_highest_bid", "winner_id", "created_at",
}

func TestPostgresGetAuction(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM auctions WHERE id = \$1`).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows(auctionRowColumns).AddRow(
				"a1", "seller1", "antique clock", "", "100",
				"10", now, int64(3600), "active",
				"120.00", "alice", now))

		a, err := st.GetAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, "a1", a.ID)
		require.Equal(t, models.StatusActive, a.Status)
		require.Equal(t, time.Hour, a.Duration)
		require.True(t, a.CurrentHighestBid.Valid)
		require.True(t, a.CurrentHighestBid.Decimal.Equal(decimal.NewFromInt(120)))
		require.Equal(t, "alice", a.WinnerID)
	})

	t.Run("no_highest_bid_yet", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM auctions WHERE id = \$1`).
			WithArgs("a2").
			WillReturnRows(sqlmock.NewRows(auctionRowColumns).AddRow(
				"a2", "seller1", "lamp", "", "50",
				"5", now, int64(3600), "pending",
				nil, "", now))

		a, err := st.GetAuction(ctx, "a2")
		require.NoError(t, err)
		require.False(t, a.CurrentHighestBid.Valid)
		require.Empty(t, a.WinnerID)
	})

	t.Run("not_found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM auctions WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := st.GetAuction(ctx, "missing")
		require.ErrorIs(t, err, ErrAuctionNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTransitionStatus(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	q := regexp.QuoteMeta(`UPDATE auctions SET status = $3 WHERE id = $1 AND status = $2`)

	t.Run("applies_when_source_matches", func(t *testing.T) {
		mock.ExpectExec(q).
			WithArgs("a1", models.StatusActive, models.StatusEnded).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := st.TransitionStatus(ctx, "a1", models.StatusActive, models.StatusEnded)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("noop_when_source_moved", func(t *testing.T) {
		mock.ExpectExec(q).
			WithArgs("a1", models.StatusActive, models.StatusEnded).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := st.TransitionStatus(ctx, "a1", models.StatusActive, models.StatusEnded)
		require.NoError(t, err)
		require.False(t, ok)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCommitBid(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)

	bid := &models.Bid{
		ID:        "b1",
		AuctionID: "a1",
		BidderID:  "alice",
		Amount:    decimal.NewFromInt(120),
		Timestamp: now,
	}
	insertQ := regexp.QuoteMeta(`INSERT INTO bids`)

	t.Run("first_bid_uses_null_guard", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`current_highest_bid IS NULL`)).
			WithArgs("a1", bid.Amount, "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertQ).
			WithArgs("b1", "a1", "alice", bid.Amount, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := st.CommitBid(ctx, bid, decimal.NullDecimal{})
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("later_bid_guards_on_previous_amount", func(t *testing.T) {
		prev := decimal.NewNullDecimal(decimal.NewFromInt(110))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`current_highest_bid = $4`)).
			WithArgs("a1", bid.Amount, "alice", prev.Decimal).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(insertQ).
			WithArgs("b1", "a1", "alice", bid.Amount, now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		ok, err := st.CommitBid(ctx, bid, prev)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("stale_baseline_rolls_back", func(t *testing.T) {
		prev := decimal.NewNullDecimal(decimal.NewFromInt(110))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`current_highest_bid = $4`)).
			WithArgs("a1", bid.Amount, "alice", prev.Decimal).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		ok, err := st.CommitBid(ctx, bid, prev)
		require.NoError(t, err)
		require.False(t, ok, "no bid row written against a stale baseline")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteWithPrice(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	amount := decimal.NewFromInt(150)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE auctions SET status = 'completed'`)).
		WithArgs("a1", amount).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := st.CompleteWithPrice(ctx, "a1", amount)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRespondCounterOffer(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)
	q := regexp.QuoteMeta(`UPDATE counter_offers SET status = $2, responded_at = $3`)

	t.Run("first_response_wins", func(t *testing.T) {
		mock.ExpectExec(q).
			WithArgs("o1", models.OfferAccepted, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := st.RespondCounterOffer(ctx, "o1", models.OfferAccepted, now)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("second_response_is_refused", func(t *testing.T) {
		mock.ExpectExec(q).
			WithArgs("o1", models.OfferRejected, now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := st.RespondCounterOffer(ctx, "o1", models.OfferRejected, now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkNotificationRead(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	q := regexp.QuoteMeta(`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`)

	t.Run("owned", func(t *testing.T) {
		mock.ExpectExec(q).
			WithArgs("n1", "alice").
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, st.MarkNotificationRead(ctx, "n1", "alice"))
	})

	t.Run("wrong_user_reads_as_missing", func(t *testing.T) {
		mock.ExpectExec(q).
			WithArgs("n1", "mallory").
			WillReturnResult(sqlmock.NewResult(0, 0))
		require.ErrorIs(t, st.MarkNotificationRead(ctx, "n1", "mallory"), ErrNotificationNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListBids(t *testing.T) {
	st, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM bids WHERE auction_id = \$1`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "auction_id", "bidder_id", "amount", "placed_at"}).
			AddRow("b2", "a1", "bob", "120", now.Add(time.Minute)).
			AddRow("b1", "a1", "alice", "110", now))

	bids, err := st.ListBids(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.Equal(t, "bob", bids[0].BidderID)
	require.True(t, bids[0].Amount.Equal(decimal.NewFromInt(120)))
	require.NoError(t, mock.ExpectationsWereMet())
}
