// Package events fans state changes out to observer groups. Groups are
// addressed as auction:{id} (everyone watching the auction), user:{id} (one
// party's private channel) and admin (staff monitoring). Delivery is
// at-most-once and best effort: a failed publish is logged and never rolls
// back the state change that produced it.
package events

import "fmt"

// Admin is the staff monitoring group; membership is gated at subscribe time.
const Admin = "admin"

// AuctionGroup addresses all current observers of one auction.
func AuctionGroup(auctionID string) string {
	return fmt.Sprintf("auction:%s", auctionID)
}

// UserGroup addresses a single party's private channel.
func UserGroup(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// Event types, matching what connected clients dispatch on.
const (
	TypeBidUpdate            = "bid_update"
	TypeOutbid               = "outbid"
	TypeNewBid               = "new_bid"
	TypeAuctionEnd           = "auction_end"
	TypeStatusUpdate         = "status_update"
	TypeSellerDecision       = "seller_decision"
	TypeAuctionCompleted     = "auction_completed"
	TypeBidRejected          = "bid_rejected"
	TypeCounterOffer         = "counter_offer"
	TypeCounterOfferReceived = "counter_offer_received"
	TypeCounterOfferResponse = "counter_offer_response"
	TypeAdminBidUpdate       = "admin_bid_update"
	TypeAdminSellerDecision  = "admin_seller_decision"
	TypeAdminStatusSweep     = "admin_auction_status_change"
)

// Envelope is the wire frame every subscriber receives.
type Envelope struct {
	Type string `json:"type"`
	Body any    `json:"message"`
}

// Publisher delivers one event to one group. Implementations must be safe
// for concurrent use and must not block on slow or absent subscribers;
// failures are theirs to log, not to return.
type Publisher interface {
	Publish(group, eventType string, body any)
}
