// =============================
// File: internal/api/server.go
// =============================
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Vixxnu/Pump-Fun-bot/internal/engine"
	"github.com/Vixxnu/Pump-Fun-bot/internal/ledger"
)

// statusPushInterval is how often the websocket endpoint pushes a snapshot.
const statusPushInterval = time.Second

// Bot is the control surface the HTTP layer drives.
type Bot interface {
	Start(tokenAddress string) (wallets int, err error)
	Stop()
	Status() ledger.Snapshot
}

// Server exposes the bot controls over HTTP.
type Server struct {
	bot      Bot
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer builds the HTTP layer over the given bot.
func NewServer(bot Bot, logger *zap.Logger) *Server {
	return &Server{
		bot:    bot,
		logger: logger.Named("api"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router assembles the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.Any("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	bot := r.Group("/api/bot")
	{
		bot.POST("/start", s.handleStart)
		bot.POST("/stop", s.handleStop)
		bot.GET("/status", s.handleStatus)
		bot.GET("/status/ws", s.handleStatusWS)
	}

	return r
}

type startRequest struct {
	TokenAddress string `json:"token_address" binding:"required"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_address is required"})
		return
	}

	wallets, err := s.bot.Start(req.TokenAddress)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, engine.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			// Wallet or config trouble, not the caller's fault.
			s.logger.Error("Start failed", zap.String("token", req.TokenAddress), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	s.logger.Info("Run started via API", zap.String("token", req.TokenAddress))
	c.JSON(http.StatusOK, gin.H{
		"message":       "bot started",
		"token_address": req.TokenAddress,
		"wallets":       wallets,
	})
}

// handleStop is idempotent: stopping an idle bot is still a 200.
func (s *Server) handleStop(c *gin.Context) {
	s.bot.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.bot.Status())
}

// handleStatusWS upgrades the connection and pushes a status snapshot once a
// second until the client goes away.
func (s *Server) handleStatusWS(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Drain client frames so pings and close frames are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusPushInterval)
	defer ticker.Stop()

	if err := conn.WriteJSON(s.bot.Status()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.bot.Status()); err != nil {
				return
			}
		}
	}
}

// Run serves the router until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("🌐 HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
