package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/cryptosim-ai/internal/middleware"
	"github.com/cryptosim-ai/internal/models"
	"github.com/cryptosim-ai/internal/repository"
	"github.com/cryptosim-ai/internal/service"
	"github.com/cryptosim-ai/internal/simulation"
	"github.com/cryptosim-ai/pkg/response"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin API requests: transaction review, simulation
// oversight, rate overrides, and manual daily processing.
type AdminHandler struct {
	simService       *service.SimulationService
	walletService    *service.WalletService
	portfolioService *service.PortfolioService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(simService *service.SimulationService, walletService *service.WalletService, portfolioService *service.PortfolioService) *AdminHandler {
	return &AdminHandler{
		simService:       simService,
		walletService:    walletService,
		portfolioService: portfolioService,
	}
}

// ListSimulations returns all simulation plans
// GET /api/v1/admin/simulations
func (h *AdminHandler) ListSimulations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	plans, total, err := h.simService.ListPlans(page, pageSize)
	if err != nil {
		response.InternalError(c, "failed to load simulations")
		return
	}

	response.SuccessPaginated(c, plans, total, page, pageSize)
}

// ListTransactions returns the review queue, filtered by status
// GET /api/v1/admin/transactions?status=pending
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	status := models.TransactionStatus(c.DefaultQuery("status", string(models.TransactionPending)))
	switch status {
	case models.TransactionPending, models.TransactionApproved, models.TransactionRejected:
	default:
		response.BadRequest(c, "invalid status, expected pending, approved or rejected")
		return
	}

	txs, total, err := h.walletService.GetTransactionsByStatus(status, page, pageSize)
	if err != nil {
		response.InternalError(c, "failed to load transactions")
		return
	}

	response.SuccessPaginated(c, txs, total, page, pageSize)
}

// ReviewRequest is the request body for transaction review
type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" binding:"max=255"`
}

// ReviewTransaction approves or rejects a pending transaction
// POST /api/v1/admin/transactions/:id/review
func (h *AdminHandler) ReviewTransaction(c *gin.Context) {
	adminID := middleware.GetUserID(c)

	txID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid transaction id")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tx, err := h.walletService.ReviewTransaction(adminID, uint(txID), req.Approve, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTransactionNotFound):
			response.NotFound(c, "transaction not found")
		case errors.Is(err, service.ErrAlreadyReviewed):
			response.Conflict(c, "transaction already reviewed")
		case errors.Is(err, service.ErrInsufficientAvailable):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to review transaction")
		}
		return
	}

	// an approved review moves funds, so the cached dashboard is stale
	h.portfolioService.Invalidate(c.Request.Context(), tx.UserID)

	response.Success(c, tx)
}

// OverrideRateRequest is the request body for a month rate override
type OverrideRateRequest struct {
	MonthNumber int     `json:"month_number" binding:"required,min=1,max=12"`
	Rate        float64 `json:"rate" binding:"required,gt=0,lt=1"`
}

// OverrideRate overrides one month's rate and recomputes later months
// POST /api/v1/admin/simulations/:userID/override-rate
func (h *AdminHandler) OverrideRate(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req OverrideRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	plan, err := h.simService.OverrideMonthRate(uint(userID), req.MonthNumber, req.Rate)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFound(c, "no simulation plan for user")
		case errors.Is(err, simulation.ErrInvalidRate):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to override rate")
		}
		return
	}

	h.portfolioService.Invalidate(c.Request.Context(), uint(userID))

	response.Success(c, plan)
}

// ProcessDailyForUser manually advances one user's plan by a day
// POST /api/v1/admin/simulations/:userID/process-daily
func (h *AdminHandler) ProcessDailyForUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	result, err := h.simService.ProcessDailyForUser(uint(userID), time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFound(c, "no simulation plan for user")
		case errors.Is(err, service.ErrAlreadyProcessed):
			response.Conflict(c, "day already processed")
		case errors.Is(err, simulation.ErrNoActiveMonth):
			response.BadRequest(c, "plan has no active month")
		default:
			response.InternalError(c, "failed to process day")
		}
		return
	}

	h.portfolioService.Invalidate(c.Request.Context(), uint(userID))

	response.Success(c, result)
}

// ProcessDailyBatch manually runs the daily batch over all active plans
// POST /api/v1/admin/process-daily
func (h *AdminHandler) ProcessDailyBatch(c *gin.Context) {
	result, err := h.simService.ProcessDailyBatch(time.Now().UTC())
	if err != nil {
		response.InternalError(c, "failed to run daily batch")
		return
	}

	response.Success(c, result)
}

// RegenerateTrades rebuilds a user's trade batch for a date
// POST /api/v1/admin/simulations/:userID/regenerate-trades?date=2026-08-31
func (h *AdminHandler) RegenerateTrades(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	date := time.Now().UTC()
	if q := c.Query("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			response.BadRequest(c, "invalid date format, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	batch, err := h.simService.RegenerateTradeBatch(uint(userID), date)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFound(c, "no simulation plan for user")
		case errors.Is(err, simulation.ErrNoActiveMonth):
			response.BadRequest(c, "plan has no active month")
		default:
			response.InternalError(c, "failed to regenerate trades")
		}
		return
	}

	response.Success(c, batch)
}

// ReinitializeSimulation force-rebuilds a user's plan from their balance
// POST /api/v1/admin/simulations/:userID/reinitialize
func (h *AdminHandler) ReinitializeSimulation(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	plan, err := h.simService.InitializeSimulation(uint(userID), true)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, simulation.ErrBelowMinimumDeposit):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, "failed to reinitialize simulation")
		}
		return
	}

	response.Created(c, plan)
}

// RegisterRoutes registers admin routes
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware, adminMiddleware gin.HandlerFunc) {
	admin := rg.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/simulations", h.ListSimulations)
		admin.GET("/transactions", h.ListTransactions)
		admin.POST("/transactions/:id/review", h.ReviewTransaction)
		admin.POST("/simulations/:userID/override-rate", h.OverrideRate)
		admin.POST("/simulations/:userID/process-daily", h.ProcessDailyForUser)
		admin.POST("/simulations/:userID/regenerate-trades", h.RegenerateTrades)
		admin.POST("/simulations/:userID/reinitialize", h.ReinitializeSimulation)
		admin.POST("/process-daily", h.ProcessDailyBatch)
	}
}
