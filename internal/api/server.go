// Package api exposes the feed, reliability, trade and guidance operations
// over HTTP and pushes state-change events to websocket clients.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/events"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/feed"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/scenario"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/trade"
)

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	cfg        config.ServerConfig
	chain      *feed.Chain
	manager    *trade.Manager
	ranker     scenario.Ranker
	hub        *Hub
	logger     zerolog.Logger
}

// NewServer wires the router, middleware and websocket hub.
func NewServer(cfg config.ServerConfig, chain *feed.Chain, manager *trade.Manager, ranker scenario.Ranker, bus *events.Bus, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.AllowedOrigins, ",")
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	s := &Server{
		router:  router,
		cfg:     cfg,
		chain:   chain,
		manager: manager,
		ranker:  ranker,
		hub:     NewHub(bus, logger),
		logger:  logger,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) registerRoutes() {
	apiGroup := s.router.Group("/api")
	{
		apiGroup.GET("/market/candles", s.handleGetCandles)
		apiGroup.GET("/market/reliability", s.handleReliability)

		apiGroup.POST("/scenarios/rank", s.handleRankScenarios)

		apiGroup.GET("/trades/saved", s.handleListSaved)
		apiGroup.POST("/trades/saved", s.handleBookmark)
		apiGroup.DELETE("/trades/saved/:id", s.handleRemoveSaved)
		apiGroup.POST("/trades/saved/:id/select", s.handleSelect)

		apiGroup.GET("/trades/active", s.handleGetActive)
		apiGroup.PATCH("/trades/active", s.handleUpdateActive)
		apiGroup.POST("/trades/active/enter", s.handleEnter)
		apiGroup.POST("/trades/active/close", s.handleClose)
		apiGroup.POST("/trades/active/invalidate", s.handleInvalidate)
		apiGroup.POST("/trades/active/guidance", s.handleGuidance)
	}

	s.router.GET("/ws", s.hub.HandleConnection)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("api server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
