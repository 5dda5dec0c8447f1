package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/cryptosim-ai/internal/middleware"
	"github.com/cryptosim-ai/internal/repository"
	"github.com/cryptosim-ai/internal/service"
	"github.com/cryptosim-ai/pkg/response"
	"github.com/gin-gonic/gin"
)

// PortfolioHandler handles dashboard API requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	simService       *service.SimulationService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService, simService *service.SimulationService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		simService:       simService,
	}
}

// GetDashboard returns the portfolio dashboard payload. Any failure
// degrades to a zeroed payload so the dashboard keeps rendering.
// GET /api/v1/portfolio/dashboard
func (h *PortfolioHandler) GetDashboard(c *gin.Context) {
	userID := middleware.GetUserID(c)

	dashboard, err := h.portfolioService.GetDashboard(c.Request.Context(), userID)
	if err != nil {
		response.Fallback(c, service.ZeroDashboard())
		return
	}

	response.Success(c, dashboard)
}

// GetTrades returns the fabricated trade batch for a date (default today)
// GET /api/v1/portfolio/trades?date=2026-08-31
func (h *PortfolioHandler) GetTrades(c *gin.Context) {
	userID := middleware.GetUserID(c)

	date := time.Now().UTC()
	if q := c.Query("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			response.BadRequest(c, "invalid date format, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	batch, err := h.simService.GetTradeBatch(userID, date)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) || errors.Is(err, repository.ErrBatchNotFound) {
			response.NotFound(c, "no trades for date")
			return
		}
		response.InternalError(c, "failed to load trades")
		return
	}

	response.Success(c, batch)
}

// GetHistory returns recent daily results and the cumulative profit
// GET /api/v1/portfolio/history?limit=30
func (h *PortfolioHandler) GetHistory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit < 1 || limit > 365 {
		limit = 30
	}

	history, err := h.portfolioService.GetHistory(userID, limit)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			response.NotFound(c, "no simulation plan")
			return
		}
		response.InternalError(c, "failed to load history")
		return
	}

	response.Success(c, history)
}

// RegisterRoutes registers portfolio routes
func (h *PortfolioHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	portfolio := rg.Group("/portfolio")
	portfolio.Use(authMiddleware)
	{
		portfolio.GET("/dashboard", h.GetDashboard)
		portfolio.GET("/trades", h.GetTrades)
		portfolio.GET("/history", h.GetHistory)
	}
}
