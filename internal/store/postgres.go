package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"auctionhouse/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// EnsureSchema applies the embedded DDL. Every statement is IF NOT EXISTS so
// running it at every boot is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	ddl, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// PostgresStore implements Store on top of database/sql with the pgx driver.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const auctionColumns = `id, seller_id, item_name, description, starting_price,
       bid_increment, go_live_time, duration_seconds, status,
       current_highest_bid, coalesce(winner_id, ''), created_at`

func scanAuction(row interface{ Scan(...any) error }) (*models.Auction, error) {
	var a models.Auction
	var durationSeconds int64
	err := row.Scan(&a.ID, &a.SellerID, &a.ItemName, &a.Description,
		&a.StartingPrice, &a.BidIncrement, &a.GoLiveTime, &durationSeconds,
		&a.Status, &a.CurrentHighestBid, &a.WinnerID, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.Duration = time.Duration(durationSeconds) * time.Second
	return &a, nil
}

func (s *PostgresStore) CreateAuction(ctx context.Context, a *models.Auction) error {
	const q = `INSERT INTO auctions
	    (id, seller_id, item_name, description, starting_price, bid_increment,
	     go_live_time, duration_seconds, status, created_at)
	    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.SellerID, a.ItemName,
		a.Description, a.StartingPrice, a.BidIncrement, a.GoLiveTime,
		int64(a.Duration/time.Second), a.Status, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create auction %s: %w", a.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetAuction(ctx context.Context, id string) (*models.Auction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAuctionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get auction %s: %w", id, err)
	}
	return a, nil
}

func (s *PostgresStore) ListAuctions(ctx context.Context, status models.AuctionStatus, limit, offset int) ([]models.Auction, error) {
	if limit <= 0 {
		limit = 10
	}
	var (
		rows *sql.Rows
		err  error
	)
	base := `SELECT ` + auctionColumns + ` FROM auctions`
	if status != "" {
		rows, err = s.db.QueryContext(ctx,
			base+` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx,
			base+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	return collectAuctions(rows)
}

func (s *PostgresStore) ListAuctionsBySeller(ctx context.Context, sellerID string) ([]models.Auction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE seller_id = $1 ORDER BY created_at DESC`,
		sellerID)
	if err != nil {
		return nil, fmt.Errorf("list auctions for seller %s: %w", sellerID, err)
	}
	return collectAuctions(rows)
}

func (s *PostgresStore) ListOpenAuctions(ctx context.Context) ([]models.Auction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE status IN ('pending','active')`)
	if err != nil {
		return nil, fmt.Errorf("list open auctions: %w", err)
	}
	return collectAuctions(rows)
}

func collectAuctions(rows *sql.Rows) ([]models.Auction, error) {
	defer rows.Close()
	var out []models.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TransitionStatus(ctx context.Context, id string, from, to models.AuctionStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE auctions SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, fmt.Errorf("transition auction %s %s->%s: %w", id, from, to, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *PostgresStore) CompleteWithPrice(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE auctions SET status = 'completed', current_highest_bid = $2
	      WHERE id = $1 AND status = 'ended'`,
		id, amount)
	if err != nil {
		return false, fmt.Errorf("complete auction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// CommitBid inserts the bid row and advances the auction highest bid and
// winner in a single transaction. The auction update is conditional on the
// stored highest still matching prev, so a concurrent commit makes this
// return false without side effects.
func (s *PostgresStore) CommitBid(ctx context.Context, bid *models.Bid, prev decimal.NullDecimal) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("commit bid: begin: %w", err)
	}
	defer tx.Rollback()

	var res sql.Result
	if prev.Valid {
		res, err = tx.ExecContext(ctx,
			`UPDATE auctions SET current_highest_bid = $2, winner_id = $3
			  WHERE id = $1 AND current_highest_bid = $4`,
			bid.AuctionID, bid.Amount, bid.BidderID, prev.Decimal)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE auctions SET current_highest_bid = $2, winner_id = $3
			  WHERE id = $1 AND current_highest_bid IS NULL`,
			bid.AuctionID, bid.Amount, bid.BidderID)
	}
	if err != nil {
		return false, fmt.Errorf("commit bid %s: update auction: %w", bid.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return false, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bids (id, auction_id, bidder_id, amount, placed_at)
	      VALUES ($1,$2,$3,$4,$5)`,
		bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.Timestamp)
	if err != nil {
		return false, fmt.Errorf("commit bid %s: insert: %w", bid.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit bid %s: %w", bid.ID, err)
	}
	return true, nil
}

func (s *PostgresStore) ListBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, auction_id, bidder_id, amount, placed_at
	       FROM bids WHERE auction_id = $1 ORDER BY placed_at DESC`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list bids for %s: %w", auctionID, err)
	}
	defer rows.Close()
	var out []models.Bid
	for rows.Next() {
		var b models.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateCounterOffer(ctx context.Context, o *models.CounterOffer) error {
	const q = `INSERT INTO counter_offers
	    (id, auction_id, seller_id, buyer_id, original_bid, counter_amount, status, created_at)
	    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := s.db.ExecContext(ctx, q, o.ID, o.AuctionID, o.SellerID, o.BuyerID,
		o.OriginalBid, o.CounterAmount, o.Status, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("create counter offer %s: %w", o.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetCounterOffer(ctx context.Context, id string) (*models.CounterOffer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, auction_id, seller_id, buyer_id, original_bid, counter_amount,
	            status, created_at, responded_at
	       FROM counter_offers WHERE id = $1`, id)
	o, err := scanCounterOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get counter offer %s: %w", id, err)
	}
	return o, nil
}

func scanCounterOffer(row interface{ Scan(...any) error }) (*models.CounterOffer, error) {
	var o models.CounterOffer
	var responded sql.NullTime
	err := row.Scan(&o.ID, &o.AuctionID, &o.SellerID, &o.BuyerID,
		&o.OriginalBid, &o.CounterAmount, &o.Status, &o.CreatedAt, &responded)
	if err != nil {
		return nil, err
	}
	if responded.Valid {
		o.RespondedAt = &responded.Time
	}
	return &o, nil
}

func (s *PostgresStore) RespondCounterOffer(ctx context.Context, id string, status models.CounterOfferStatus, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE counter_offers SET status = $2, responded_at = $3
	      WHERE id = $1 AND status = 'pending'`,
		id, status, at)
	if err != nil {
		return false, fmt.Errorf("respond counter offer %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *PostgresStore) ListCounterOffersForBuyer(ctx context.Context, buyerID string) ([]models.CounterOffer, error) {
	return s.listCounterOffers(ctx, "buyer_id", buyerID)
}

func (s *PostgresStore) ListCounterOffersForSeller(ctx context.Context, sellerID string) ([]models.CounterOffer, error) {
	return s.listCounterOffers(ctx, "seller_id", sellerID)
}

func (s *PostgresStore) listCounterOffers(ctx context.Context, column, userID string) ([]models.CounterOffer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, auction_id, seller_id, buyer_id, original_bid, counter_amount,
	            status, created_at, responded_at
	       FROM counter_offers WHERE `+column+` = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list counter offers: %w", err)
	}
	defer rows.Close()
	var out []models.CounterOffer
	for rows.Next() {
		o, err := scanCounterOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (id, user_id, auction_id, message, is_read, created_at)
	    VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := s.db.ExecContext(ctx, q, n.ID, n.UserID, n.AuctionID, n.Message, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListUnreadNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, auction_id, message, is_read, created_at
	       FROM notifications WHERE user_id = $1 AND is_read = FALSE
	      ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for %s: %w", userID, err)
	}
	defer rows.Close()
	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.AuctionID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *PostgresStore) GlobalCounts(ctx context.Context) (*Counts, error) {
	c := &Counts{Auctions: map[models.AuctionStatus]int{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, count(*) FROM auctions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count auctions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st models.AuctionStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		c.Auctions[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const q = `SELECT
	    (SELECT count(*) FROM bids),
	    (SELECT count(*) FROM counter_offers),
	    (SELECT count(*) FROM counter_offers WHERE status = 'pending'),
	    (SELECT count(*) FROM notifications WHERE is_read = FALSE),
	    (SELECT coalesce(sum(current_highest_bid), 0) FROM auctions WHERE status = 'completed')`
	err = s.db.QueryRowContext(ctx, q).Scan(&c.Bids, &c.CounterOffers,
		&c.PendingOffers, &c.UnreadNotifications, &c.CompletedRevenue)
	if err != nil {
		return nil, fmt.Errorf("global counts: %w", err)
	}
	return c, nil
}
