package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/guidance"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/market"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/reliability"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/scenario"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/trade"
)

const defaultLookback = 7 * 24 * time.Hour

// handleGetCandles runs the provider chain. A total outage comes back as an
// empty candle list, never as an error status.
func (s *Server) handleGetCandles(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	interval := c.DefaultQuery("interval", "15m")

	since := time.Now().Add(-defaultLookback)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = parsed
	}

	result := s.chain.Fetch(c.Request.Context(), symbol, interval, since)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleReliability(c *gin.Context) {
	rawScore, err := strconv.ParseFloat(c.Query("rawScore"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rawScore must be a number"})
		return
	}
	lastBarTimeMs, _ := strconv.ParseInt(c.Query("lastBarTimeMs"), 10, 64)

	status := market.StatusOpen
	if c.Query("marketStatus") == string(market.StatusClosed) {
		status = market.StatusClosed
	}

	result := reliability.Score(reliability.Input{
		RawScore:      rawScore,
		LastBarTimeMs: lastBarTimeMs,
		Source:        market.DataSource(c.DefaultQuery("source", string(market.SourceYahoo))),
		MarketStatus:  status,
	})
	c.JSON(http.StatusOK, result)
}

type rankRequest struct {
	Scenarios []scenario.TradeScenario `json:"scenarios"`
	Weights   map[string]float64       `json:"weights"`
}

func (s *Server) handleRankScenarios(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": s.ranker.Rank(req.Scenarios, req.Weights)})
}

func (s *Server) handleListSaved(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trades": s.manager.Saved()})
}

// handleBookmark accepts a scenario and bookmarks it. NEUTRAL or duplicate
// scenarios are silent no-ops per the error-handling contract.
func (s *Server) handleBookmark(c *gin.Context) {
	var sc scenario.TradeScenario
	if err := c.ShouldBindJSON(&sc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, ok := s.manager.Bookmark(c.Request.Context(), sc.BookmarkRequest())
	c.JSON(http.StatusOK, gin.H{"bookmarked": ok, "trade": saved})
}

func (s *Server) handleRemoveSaved(c *gin.Context) {
	removed := s.manager.RemoveSaved(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleSelect(c *gin.Context) {
	active, ok := s.manager.Select(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "saved trade not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trade": active})
}

func (s *Server) handleGetActive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"trade": s.manager.Active()})
}

func (s *Server) handleUpdateActive(c *gin.Context) {
	var patch trade.ParamsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active, ok := s.manager.UpdateParams(c.Request.Context(), patch)
	c.JSON(http.StatusOK, gin.H{"updated": ok, "trade": active})
}

func (s *Server) handleEnter(c *gin.Context) {
	active, ok := s.manager.MarkEntered(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"entered": ok, "trade": active})
}

func (s *Server) handleClose(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"closed": s.manager.Close(c.Request.Context())})
}

func (s *Server) handleInvalidate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"closed": s.manager.Invalidate(c.Request.Context())})
}

// handleGuidance evaluates the active trade against a market-context snapshot
// and records the verdict when the status changed.
func (s *Server) handleGuidance(c *gin.Context) {
	var ctx guidance.MarketContext
	if err := c.ShouldBindJSON(&ctx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	active := s.manager.Active()
	if active == nil {
		c.JSON(http.StatusOK, gin.H{"verdict": nil})
		return
	}

	verdict := guidance.Evaluate(active, ctx)
	logged := s.manager.AppendGuidance(c.Request.Context(), verdict.Status, verdict.Evidence)
	c.JSON(http.StatusOK, gin.H{"verdict": verdict, "logged": logged})
}
