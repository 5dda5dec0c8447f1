package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptosim-ai/internal/handler"
	"github.com/cryptosim-ai/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// APIResponse represents the standard response envelope
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// DashboardPayload represents the /portfolio/dashboard response data
type DashboardPayload struct {
	Balance              float64 `json:"balance"`
	LockedBalance        float64 `json:"locked_balance"`
	AvailableBalance     float64 `json:"available_balance"`
	TotalDeposited       float64 `json:"total_deposited"`
	TotalProjectedReturn float64 `json:"total_projected_return"`
	TotalInterestPaid    float64 `json:"total_interest_paid"`
	TodayProfit          float64 `json:"today_profit"`
	TodayTrades          int     `json:"today_trades"`
	TodayWinRate         float64 `json:"today_win_rate"`
	CurrentMonth         int     `json:"current_month"`
	MonthProgress        float64 `json:"month_progress"`
}

// PaginatedPayload represents the paginated response data wrapper
type PaginatedPayload struct {
	Items      json.RawMessage `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// TradePayload represents a single fabricated trade in batch responses
type TradePayload struct {
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Amount      float64 `json:"amount"`
	ProfitLoss  float64 `json:"profit_loss"`
	DurationSec int     `json:"duration_sec"`
	ExecutedAt  string  `json:"executed_at"`
}

func TestSuccessResponseFormat(t *testing.T) {
	router := gin.New()
	router.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"value": 42})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code, "Code should be 0 for success")
	assert.Equal(t, "success", resp.Message)
	assert.NotNil(t, resp.Data)
}

func TestErrorResponseFormat(t *testing.T) {
	testCases := []struct {
		name       string
		send       func(c *gin.Context)
		httpStatus int
		code       int
		message    string
	}{
		{
			name:       "Bad Request",
			send:       func(c *gin.Context) { response.BadRequest(c, "invalid amount") },
			httpStatus: http.StatusBadRequest,
			code:       -1,
			message:    "invalid amount",
		},
		{
			name:       "Unauthorized",
			send:       func(c *gin.Context) { response.Unauthorized(c, "invalid or expired token") },
			httpStatus: http.StatusUnauthorized,
			code:       -1001,
			message:    "invalid or expired token",
		},
		{
			name:       "Forbidden",
			send:       func(c *gin.Context) { response.Forbidden(c, "admin access required") },
			httpStatus: http.StatusForbidden,
			code:       -1002,
			message:    "admin access required",
		},
		{
			name:       "Not Found",
			send:       func(c *gin.Context) { response.NotFound(c, "simulation plan not found") },
			httpStatus: http.StatusNotFound,
			code:       -1003,
			message:    "simulation plan not found",
		},
		{
			name:       "Conflict",
			send:       func(c *gin.Context) { response.Conflict(c, "simulation already initialized") },
			httpStatus: http.StatusConflict,
			code:       -1004,
			message:    "simulation already initialized",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/err", func(c *gin.Context) { tc.send(c) })

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/err", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.httpStatus, w.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
			assert.Equal(t, tc.message, resp.Message)
			assert.Nil(t, resp.Data, "Error responses should omit data")
		})
	}
}

func TestPaginatedResponseFormat(t *testing.T) {
	router := gin.New()
	router.GET("/list", func(c *gin.Context) {
		items := []gin.H{{"id": 1}, {"id": 2}}
		response.SuccessPaginated(c, items, 25, 2, 10)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/list?page=2&page_size=10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var page PaginatedPayload
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Equal(t, 3, page.TotalPages, "25 items at page size 10 should be 3 pages")
}

func TestDashboardPayloadFormat(t *testing.T) {
	mockData := `{
		"balance": 11800.00,
		"locked_balance": 9440.00,
		"available_balance": 2360.00,
		"total_deposited": 10000.00,
		"total_projected_return": 61917.36,
		"total_interest_paid": 1800.00,
		"today_profit": 60.00,
		"today_trades": 342,
		"today_win_rate": 0.73,
		"current_month": 2,
		"month_progress": 0.40
	}`

	var payload DashboardPayload
	require.NoError(t, json.Unmarshal([]byte(mockData), &payload))

	assert.Equal(t, 11800.00, payload.Balance)
	assert.InDelta(t, payload.Balance*0.80, payload.LockedBalance, 0.01,
		"locked balance should be 80% of the portfolio")
	assert.InDelta(t, payload.Balance-payload.LockedBalance, payload.AvailableBalance, 0.01)
	assert.Equal(t, 342, payload.TodayTrades)
	assert.GreaterOrEqual(t, payload.TodayWinRate, 0.60)
	assert.LessOrEqual(t, payload.TodayWinRate, 0.85)
}

func TestTradePayloadFormat(t *testing.T) {
	mockData := `{
		"symbol": "BTCUSDT",
		"side": "LONG",
		"amount": 235.42,
		"profit_loss": 1.87,
		"duration_sec": 412,
		"executed_at": "2026-04-15T09:23:41Z"
	}`

	var trade TradePayload
	require.NoError(t, json.Unmarshal([]byte(mockData), &trade))

	assert.Equal(t, "BTCUSDT", trade.Symbol)
	assert.Contains(t, []string{"LONG", "SHORT"}, trade.Side)
	assert.Greater(t, trade.Amount, 0.0)
	assert.GreaterOrEqual(t, trade.DurationSec, 30)
	assert.Less(t, trade.DurationSec, 1800)
}

func TestDepositRequestValidation(t *testing.T) {
	type depositRequest struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
	}

	router := gin.New()
	router.POST("/deposit", func(c *gin.Context) {
		var req depositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		response.Created(c, gin.H{"amount": req.Amount})
	})

	testCases := []struct {
		name       string
		body       string
		httpStatus int
	}{
		{"Valid Deposit", `{"amount": 500}`, http.StatusCreated},
		{"Zero Amount", `{"amount": 0}`, http.StatusBadRequest},
		{"Negative Amount", `{"amount": -100}`, http.StatusBadRequest},
		{"Missing Amount", `{}`, http.StatusBadRequest},
		{"Malformed JSON", `{amount}`, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/deposit", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.httpStatus, w.Code)
		})
	}
}

func TestChatMessageRequestValidation(t *testing.T) {
	type sendMessageRequest struct {
		Body string `json:"body" binding:"required,min=1,max=2000"`
	}

	router := gin.New()
	router.POST("/messages", func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		response.Created(c, gin.H{"body": req.Body})
	})

	longBody := make([]byte, 2001)
	for i := range longBody {
		longBody[i] = 'a'
	}
	longJSON, _ := json.Marshal(gin.H{"body": string(longBody)})

	testCases := []struct {
		name       string
		body       string
		httpStatus int
	}{
		{"Valid Message", `{"body": "hello"}`, http.StatusCreated},
		{"Empty Body", `{"body": ""}`, http.StatusBadRequest},
		{"Missing Body", `{}`, http.StatusBadRequest},
		{"Over Length Limit", string(longJSON), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/messages", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.httpStatus, w.Code)
		})
	}
}

func TestFallbackResponseFormat(t *testing.T) {
	router := gin.New()
	router.GET("/portfolio/dashboard", func(c *gin.Context) {
		// Mirrors the handler behavior when the portfolio build fails:
		// a zeroed payload instead of a 500.
		response.Fallback(c, DashboardPayload{})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/portfolio/dashboard", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	var payload DashboardPayload
	require.NoError(t, json.Unmarshal(resp.Data, &payload))
	assert.Zero(t, payload.Balance)
	assert.Zero(t, payload.TodayTrades)
}

func TestAdminTransactionStatusValidation(t *testing.T) {
	h := handler.NewAdminHandler(nil, nil, nil)

	router := gin.New()
	router.GET("/admin/transactions", h.ListTransactions)

	testCases := []struct {
		name   string
		status string
	}{
		{"Unknown Status", "done"},
		{"Capitalized Status", "Pending"},
		{"Numeric Status", "1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/admin/transactions?status="+tc.status, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, -1, resp.Code)
			assert.Contains(t, resp.Message, "status")
		})
	}
}
