package auctionhandler

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateAuctionBody struct {
	SellerID      string          `json:"seller_id"      binding:"required" example:"seller123"`
	ItemName      string          `json:"item_name"      binding:"required" example:"antique clock"`
	Description   string          `json:"description"`
	StartingPrice decimal.Decimal `json:"starting_price" binding:"required" example:"100.00"`
	BidIncrement  decimal.Decimal `json:"bid_increment"  binding:"required" example:"10.00"`
	GoLiveTime    time.Time       `json:"go_live_time"   binding:"required" example:"2025-07-27T16:05:05Z"`
	DurationHours int             `json:"duration_hours" binding:"required,gt=0" example:"24"`
}

type PlaceBidBody struct {
	BidderID string          `json:"bidder_id" binding:"required" example:"user123"`
	Amount   decimal.Decimal `json:"amount"    binding:"required" example:"110.00"`
}

type SellerDecisionBody struct {
	SellerID      string          `json:"seller_id"      binding:"required" example:"seller123"`
	Decision      string          `json:"decision"       binding:"required,oneof=accept reject counter"`
	CounterAmount decimal.Decimal `json:"counter_amount" example:"150.00"`
}

type OfferResponseBody struct {
	BuyerID  string `json:"buyer_id" binding:"required" example:"user123"`
	Response string `json:"response" binding:"required,oneof=accept reject"`
}

type MarkReadBody struct {
	UserID string `json:"user_id" binding:"required"`
}

type ListAuctionsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending active ended completed cancelled"`
	Limit  int    `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int    `form:"offset,default=0"  binding:"gte=0"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
