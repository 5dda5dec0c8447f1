package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cryptosim-ai/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const dashboardCacheTTL = 30 * time.Second

// PortfolioService assembles the dashboard view: balance split into locked
// and available capital, today's fabricated trading stats, and month
// progress. Payloads are cached briefly in Redis since the dashboard polls.
type PortfolioService struct {
	simService  *SimulationService
	batchRepo   *repository.TradeBatchRepository
	redis       *redis.Client
	lockedRatio float64
	log         *logrus.Logger
}

// NewPortfolioService creates a new PortfolioService
func NewPortfolioService(
	simService *SimulationService,
	batchRepo *repository.TradeBatchRepository,
	redisClient *redis.Client,
	lockedRatio float64,
	log *logrus.Logger,
) *PortfolioService {
	return &PortfolioService{
		simService:  simService,
		batchRepo:   batchRepo,
		redis:       redisClient,
		lockedRatio: lockedRatio,
		log:         log,
	}
}

// Dashboard is the portfolio payload rendered on the user dashboard
type Dashboard struct {
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

// ZeroDashboard returns an all-zero payload. Handlers fall back to it when
// assembly fails so the dashboard keeps rendering.
func ZeroDashboard() *Dashboard {
	return &Dashboard{}
}

// GetDashboard assembles (or serves from cache) the dashboard for a user
func (s *PortfolioService) GetDashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	key := fmt.Sprintf("dashboard:%d", userID)

	if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
		var d Dashboard
		if err := json.Unmarshal([]byte(cached), &d); err == nil {
			return &d, nil
		}
	}

	d, err := s.build(userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(d); err == nil {
		if err := s.redis.Set(ctx, key, data, dashboardCacheTTL).Err(); err != nil {
			s.log.WithError(err).Debug("dashboard cache write failed")
		}
	}

	return d, nil
}

// Invalidate drops the cached dashboard for a user
func (s *PortfolioService) Invalidate(ctx context.Context, userID uint) {
	if err := s.redis.Del(ctx, fmt.Sprintf("dashboard:%d", userID)).Err(); err != nil {
		s.log.WithError(err).Debug("dashboard cache invalidation failed")
	}
}

// HistoryEntry is one day of trading activity in the history view
type HistoryEntry struct {
	Date       string  `json:"date"`
	Profit     float64 `json:"profit"`
	TradeCount int     `json:"trade_count"`
	WinRate    float64 `json:"win_rate"`
}

// History is the recent trading activity payload
type History struct {
	Days        []HistoryEntry `json:"days"`
	TotalProfit float64        `json:"total_profit"`
}

// GetHistory returns the most recent daily results plus the cumulative
// profit over the whole plan
func (s *PortfolioService) GetHistory(userID uint, limit int) (*History, error) {
	plan, err := s.simService.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	batches, err := s.batchRepo.GetRecentByPlan(plan.ID, limit)
	if err != nil {
		return nil, err
	}

	total, err := s.batchRepo.GetTotalProfitLoss(plan.ID)
	if err != nil {
		return nil, err
	}

	days := make([]HistoryEntry, 0, len(batches))
	for _, b := range batches {
		days = append(days, HistoryEntry{
			Date:       b.TradeDate.Format("2006-01-02"),
			Profit:     b.ActualTotal,
			TradeCount: b.TradeCount,
			WinRate:    b.WinRate(),
		})
	}

	return &History{Days: days, TotalProfit: total}, nil
}

func (s *PortfolioService) build(userID uint) (*Dashboard, error) {
	status, err := s.simService.GetStatus(userID)
	if err != nil {
		return nil, err
	}

	plan, err := s.simService.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Balance:              status.CurrentBalance,
		LockedBalance:        status.CurrentBalance * s.lockedRatio,
		AvailableBalance:     status.CurrentBalance * (1 - s.lockedRatio),
		TotalDeposited:       status.TotalDeposited,
		TotalProjectedReturn: status.TotalProjectedReturn,
		TotalInterestPaid:    status.TotalInterestPaid,
		CurrentMonth:         status.CurrentMonth,
	}
	if status.DaysInMonth > 0 {
		d.MonthProgress = float64(status.DaysPaid) / float64(status.DaysInMonth)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if batch, err := s.batchRepo.GetByPlanAndDate(plan.ID, today); err == nil {
		d.TodayProfit = batch.ActualTotal
		d.TodayTrades = batch.TradeCount
		d.TodayWinRate = batch.WinRate()
	}

	return d, nil
}
