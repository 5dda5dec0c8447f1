package handler

import (
	"errors"
	"strconv"

	"github.com/cryptosim-ai/internal/middleware"
	"github.com/cryptosim-ai/internal/service"
	"github.com/cryptosim-ai/pkg/response"
	"github.com/gin-gonic/gin"
)

// WalletHandler handles deposit/withdrawal API requests
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
	}
}

// AmountRequest is the request body for deposit and withdrawal requests
type AmountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// RequestDeposit creates a pending deposit request
// POST /api/v1/wallet/deposits
func (h *WalletHandler) RequestDeposit(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tx, err := h.walletService.RequestDeposit(userID, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to create deposit request")
		return
	}

	response.Created(c, tx)
}

// RequestWithdrawal creates a pending withdrawal request
// POST /api/v1/wallet/withdrawals
func (h *WalletHandler) RequestWithdrawal(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tx, err := h.walletService.RequestWithdrawal(userID, req.Amount)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) || errors.Is(err, service.ErrInsufficientAvailable) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, "failed to create withdrawal request")
		return
	}

	response.Created(c, tx)
}

// GetSummary returns the wallet overview
// GET /api/v1/wallet/summary
func (h *WalletHandler) GetSummary(c *gin.Context) {
	userID := middleware.GetUserID(c)

	summary, err := h.walletService.GetSummary(userID)
	if err != nil {
		response.InternalError(c, "failed to load wallet summary")
		return
	}

	response.Success(c, summary)
}

// GetTransactions lists the authenticated user's transactions
// GET /api/v1/wallet/transactions
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	txs, total, err := h.walletService.GetTransactions(userID, page, pageSize)
	if err != nil {
		response.InternalError(c, "failed to load transactions")
		return
	}

	response.SuccessPaginated(c, txs, total, page, pageSize)
}

// RegisterRoutes registers wallet routes
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup, authMiddleware gin.HandlerFunc) {
	wallet := rg.Group("/wallet")
	wallet.Use(authMiddleware)
	{
		wallet.GET("/summary", h.GetSummary)
		wallet.POST("/deposits", h.RequestDeposit)
		wallet.POST("/withdrawals", h.RequestWithdrawal)
		wallet.GET("/transactions", h.GetTransactions)
	}
}
