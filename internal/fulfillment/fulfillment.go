// Package fulfillment is the post-completion side channel: once an auction
// reaches completed, the confirmation email and invoice collaborators are
// invoked exactly once with (seller, buyer, auction). Failures here are
// logged and never propagated; the completed transition is already durable.
package fulfillment

import (
	"context"

	"go.uber.org/zap"

	"auctionhouse/internal/models"
)

type Confirmer interface {
	AuctionCompleted(ctx context.Context, sellerID, buyerID string, auction *models.Auction) error
}

// LogConfirmer records the hand-off that an external mailer/invoicer would
// perform. It stands in for the delivery system, which is outside this
// service.
type LogConfirmer struct{}

var _ Confirmer = (*LogConfirmer)(nil)

func (LogConfirmer) AuctionCompleted(_ context.Context, sellerID, buyerID string, auction *models.Auction) error {
	zap.L().Info("fulfillment_dispatch",
		zap.String("auction_id", auction.ID),
		zap.String("item", auction.ItemName),
		zap.String("seller_id", sellerID),
		zap.String("buyer_id", buyerID),
		zap.String("final_price", auction.CurrentHighestBid.Decimal.StringFixed(2)),
	)
	return nil
}
