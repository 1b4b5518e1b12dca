// Package api serves the operational HTTP surface: health, engine status,
// trade history and Prometheus metrics. It is read-only; the engine is not
// driven over HTTP.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trend-engine/internal/journal"
	"trend-engine/internal/risk"
	"trend-engine/internal/state"
)

// Status is the engine snapshot served at /api/status.
type Status struct {
	Mode          string           `json:"mode"`
	Equity        float64          `json:"equity"`
	GateLocked    bool             `json:"gate_locked"`
	RiskDay       risk.DayState    `json:"risk_day"`
	OpenPositions []state.Position `json:"open_positions"`
}

// StatusFunc produces the current engine snapshot.
type StatusFunc func() Status

// Server wraps the gin router.
type Server struct {
	router  *gin.Engine
	status  StatusFunc
	journal *journal.Journal
}

// NewServer builds the HTTP surface. journal may be nil; the trades endpoint
// then returns an empty list.
func NewServer(status StatusFunc, j *journal.Journal) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID())

	s := &Server{router: router, status: status, journal: j}

	router.GET("/healthz", s.handleHealth)
	router.GET("/api/status", s.handleStatus)
	router.GET("/api/trades", s.handleTrades)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler { return s.router }

// Run blocks serving HTTP on addr.
func (s *Server) Run(addr string) error { return s.router.Run(addr) }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.status()
	if st.OpenPositions == nil {
		st.OpenPositions = []state.Position{}
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) handleTrades(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1-500"})
			return
		}
		limit = n
	}

	trades := []journal.TradeRecord{}
	if s.journal != nil {
		recent, err := s.journal.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query trades failed"})
			return
		}
		if recent != nil {
			trades = recent
		}
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// requestID tags each request for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
