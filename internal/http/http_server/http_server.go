package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"auctionhouse/internal/http/auctionhandler"
	"auctionhouse/internal/ws"
)

type httpServer struct {
	listenPort uint16
	srv        http.Server
	ln         net.Listener
	handler    *auctionhandler.Handler
	wsSrv      *ws.WsServer
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, wsSrv *ws.WsServer, handler *auctionhandler.Handler) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		wsSrv:      wsSrv,
		handler:    handler,
		ctx:        ctx,
	}
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	routerEngine := gin.New()
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoints
	routerEngine.GET("/ws", h.wsSrv.Handle)
	routerEngine.GET("/ws/admin", h.wsSrv.HandleAdmin)

	// REST API
	h.handler.Register(routerEngine)

	h.srv = http.Server{
		Handler: routerEngine,
	}

	// Drain on SIGINT/SIGTERM; Serve then returns ErrServerClosed.
	go func() {
		<-h.ctx.Done()
		_ = h.Dispose()
	}()

	if err := h.srv.Serve(h.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Dispose gracefully shuts the HTTP server down, waiting up to 10 s for
// in-flight requests to finish.
func (h *httpServer) Dispose() error {
	// Not derived from h.ctx: that context is already cancelled when the
	// drain starts.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err
	}
	return nil
}
