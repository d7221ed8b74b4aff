package auctionhandler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auctionhouse/internal/events"
	"auctionhouse/internal/identity"
	"auctionhouse/internal/models"
	"auctionhouse/internal/services/auction"
	"auctionhouse/internal/store"
)

type Handler struct {
	svc auction.IAuctionService
	idp identity.Provider
	pub events.Publisher
}

func New(svc auction.IAuctionService, idp identity.Provider, pub events.Publisher) *Handler {
	return &Handler{svc: svc, idp: idp, pub: pub}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/auctions", h.create)
	r.GET("/auctions", h.list)
	r.GET("/auctions/:id", h.info)
	r.GET("/auctions/:id/bids", h.bids)
	r.POST("/auctions/:id/bid", h.bid)
	r.POST("/auctions/:id/decision", h.decision)

	r.GET("/counter-offers", h.listOffers)
	r.GET("/counter-offers/:id", h.getOffer)
	r.POST("/counter-offers/:id/respond", h.respondOffer)

	r.GET("/notifications", h.notifications)
	r.POST("/notifications/:id/read", h.markRead)

	r.GET("/seller/dashboard", h.dashboard)
	r.GET("/admin/stats", h.adminStats)
	r.POST("/admin/sweep", h.adminSweep)
}

// writeError translates engine errors into HTTP responses. Unexpected faults
// surface as a generic internal error.
func writeError(c *gin.Context, err error) {
	var tooLow *auction.BidTooLowError
	if errors.As(err, &tooLow) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           tooLow.Error(),
			"minimum_bid":     tooLow.Minimum.StringFixed(2),
			"current_highest": tooLow.CurrentHighest.StringFixed(2),
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrAuctionNotFound),
		errors.Is(err, store.ErrOfferNotFound),
		errors.Is(err, store.ErrNotificationNotFound),
		errors.Is(err, identity.ErrUnknownUser):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auction.ErrInvalidAuction),
		errors.Is(err, auction.ErrAuctionNotActive),
		errors.Is(err, auction.ErrSelfBid),
		errors.Is(err, auction.ErrInvalidAmount),
		errors.Is(err, auction.ErrNotEnded),
		errors.Is(err, auction.ErrNoWinner),
		errors.Is(err, auction.ErrCounterTooLow),
		errors.Is(err, auction.ErrInvalidDecision),
		errors.Is(err, auction.ErrAlreadyResponded),
		errors.Is(err, auction.ErrOfferOutstanding),
		errors.Is(err, auction.ErrOfferExpired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		zap.L().Error("internal_error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func (h *Handler) create(c *gin.Context) {
	var body CreateAuctionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.svc.CreateAuction(c.Request.Context(), auction.CreateAuctionParams{
		SellerID:      body.SellerID,
		ItemName:      body.ItemName,
		Description:   body.Description,
		StartingPrice: body.StartingPrice,
		BidIncrement:  body.BidIncrement,
		GoLiveTime:    body.GoLiveTime,
		Duration:      time.Duration(body.DurationHours) * time.Hour,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

func (h *Handler) list(c *gin.Context) {
	var q ListAuctionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListAuctions(c.Request.Context(), models.AuctionStatus(q.Status), q.Limit, q.Offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) info(c *gin.Context) {
	dto, err := h.svc.GetAuction(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) bids(c *gin.Context) {
	bids, err := h.svc.ListBids(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

func (h *Handler) bid(c *gin.Context) {
	var body PlaceBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	res, err := h.svc.PlaceBid(c.Request.Context(), c.Param("id"), body.BidderID, body.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"bid_id":          res.Bid.ID,
		"new_highest_bid": res.NewHighest.StringFixed(2),
		"bidder":          res.Bid.BidderID,
	})
}

func (h *Handler) decision(c *gin.Context) {
	var body SellerDecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	offer, err := h.svc.SellerDecision(c.Request.Context(), c.Param("id"),
		body.SellerID, auction.Decision(body.Decision), body.CounterAmount)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"success": true}
	if offer != nil {
		resp["counter_offer"] = offer
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listOffers(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return
	}
	offers, err := h.svc.ListCounterOffers(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (h *Handler) getOffer(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return
	}
	offer, err := h.svc.GetCounterOffer(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (h *Handler) respondOffer(c *gin.Context) {
	var body OfferResponseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	err := h.svc.RespondCounterOffer(c.Request.Context(), c.Param("id"),
		body.BuyerID, body.Response == "accept")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) notifications(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return
	}
	out, err := h.svc.Notifications(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) markRead(c *gin.Context) {
	var body MarkReadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.svc.MarkNotificationRead(c.Request.Context(), c.Param("id"), body.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) dashboard(c *gin.Context) {
	sellerID := c.Query("seller_id")
	if sellerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "seller_id is required"})
		return
	}
	out, err := h.svc.Dashboard(c.Request.Context(), sellerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) requireStaff(c *gin.Context, userID string) bool {
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return false
	}
	staff, err := h.idp.IsStaff(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return false
	}
	if !staff {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "permission denied"})
		return false
	}
	return true
}

func (h *Handler) adminStats(c *gin.Context) {
	if !h.requireStaff(c, c.Query("user_id")) {
		return
	}
	out, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) adminSweep(c *gin.Context) {
	userID := c.Query("user_id")
	if !h.requireStaff(c, userID) {
		return
	}
	h.svc.Sweep(c.Request.Context())
	h.pub.Publish(events.Admin, events.TypeAdminStatusSweep, map[string]any{
		"action":       "bulk_status_update",
		"triggered_by": userID,
		"timestamp":    time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "all auction statuses updated"})
}
