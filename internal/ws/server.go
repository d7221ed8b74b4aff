package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionhouse/internal/events"
	"auctionhouse/internal/identity"
	"auctionhouse/internal/services/auction"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must be < pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

type WsServer struct {
	hub        *Hub
	subMgr     *subscriptionManager
	router     *Router
	auctionSvc auction.IAuctionService
	idp        identity.Provider
}

func NewWsServer(h *Hub, rdc *redis.Client, auctionSvc auction.IAuctionService, idp identity.Provider) *WsServer {
	srv := &WsServer{
		hub:        h,
		subMgr:     newSubscriptionManager(rdc, h),
		router:     NewRouter(),
		auctionSvc: auctionSvc,
		idp:        idp,
	}
	srv.registerHandlers()
	return srv
}

// Handle joins the caller to an auction's observer group and, when a user id
// is supplied, to that user's private group.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	auctionID := ginCtx.Query("auction_id")
	userID := ginCtx.Query("user_id")
	if auctionID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "auction_id is required"})
		return
	}

	groups := []string{events.AuctionGroup(auctionID)}
	if userID != "" {
		groups = append(groups, events.UserGroup(userID))
	}
	s.accept(ginCtx, &ConnContext{AuctionID: auctionID, UserID: userID}, groups)
}

// HandleAdmin joins staff to the admin monitoring group. Membership is
// checked against the identity provider at subscription time.
func (s *WsServer) HandleAdmin(ginCtx *gin.Context) {
	userID := ginCtx.Query("user_id")
	if userID == "" {
		ginCtx.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	staff, err := s.idp.IsStaff(ginCtx.Request.Context(), userID)
	if err != nil || !staff {
		ginCtx.JSON(http.StatusForbidden, gin.H{"error": "staff only"})
		return
	}
	s.accept(ginCtx, &ConnContext{UserID: userID, Staff: true}, []string{events.Admin})
}

func (s *WsServer) accept(ginCtx *gin.Context, cc *ConnContext, groups []string) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws_accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(512)

	conn := &clientConn{rawConn: rawConn}
	for _, g := range groups {
		s.hub.Join(g, conn)
		s.subMgr.Subscribe(g) // may be a no-op (already subscribed)
	}

	if cc.AuctionID != "" {
		if err := s.pushSnapshot(ginCtx.Request.Context(), cc.AuctionID, conn); err != nil {
			zap.L().Warn("ws_snapshot", zap.String("auction_id", cc.AuctionID), zap.Error(err))
		}
	}

	go s.reader(cc, conn, groups)
	go s.pinger(conn)
}

func (s *WsServer) registerHandlers() {
	Register(s.router, "ping",
		func(_ context.Context, _ *ConnContext, req PingBody) (PingBody, error) {
			return PingBody{Timestamp: req.Timestamp}, nil
		})

	Register(s.router, "auctions/status",
		func(ctx context.Context, cc *ConnContext, _ AckBody) (*auction.AuctionDTO, error) {
			return s.auctionSvc.GetAuction(ctx, cc.AuctionID)
		})
}

// pushSnapshot sends the current auction state so a joining observer does
// not have to wait for the next event.
func (s *WsServer) pushSnapshot(ctx context.Context, auctionID string, conn *clientConn) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	dto, err := s.auctionSvc.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	return conn.writeJSON(gin.H{
		"event": "auctions/snapshot",
		"body":  dto,
	})
}

func (s *WsServer) reader(cc *ConnContext, conn *clientConn, groups []string) {
	defer func() {
		for _, g := range groups {
			s.hub.Leave(g, conn)
			s.subMgr.Unsubscribe(g)
		}
		conn.close()
	}()

	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1900*time.Millisecond)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		if err != nil {
			_ = conn.writeJSON(map[string]any{
				"event": "error",
				"body":  ErrorBody{Error: err.Error()},
			})
			continue
		}

		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = conn.writeJSON(reply)
	}
}

func (s *WsServer) pinger(conn *clientConn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if err := conn.write(websocket.PingMessage, nil); err != nil {
			conn.close()
			return
		}
	}
}
