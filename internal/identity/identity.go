// Package identity resolves caller ids to stable identities. The engine only
// ever asks two questions: is this caller the seller of an auction (answered
// against the auction record itself) and is this caller staff.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auctionhouse/internal/models"
)

var ErrUnknownUser = errors.New("unknown user")

type Provider interface {
	Resolve(ctx context.Context, userID string) (*models.User, error)
	IsStaff(ctx context.Context, userID string) (bool, error)
}

// PostgresProvider reads the users table maintained by the account system.
type PostgresProvider struct {
	db *sql.DB
}

var _ Provider = (*PostgresProvider)(nil)

func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) Resolve(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, username, is_staff FROM users WHERE id = $1`, userID).
		Scan(&u.ID, &u.Username, &u.Staff)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", userID, err)
	}
	return &u, nil
}

func (p *PostgresProvider) IsStaff(ctx context.Context, userID string) (bool, error) {
	u, err := p.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.Staff, nil
}
