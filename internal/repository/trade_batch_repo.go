package repository

import (
	"errors"
	"time"

	"github.com/cryptosim-ai/internal/models"
	"gorm.io/gorm"
)

var (
	ErrBatchNotFound = errors.New("trade batch not found")
)

// TradeBatchRepository handles daily trade batch data access
type TradeBatchRepository struct {
	db *gorm.DB
}

// NewTradeBatchRepository creates a new TradeBatchRepository
func NewTradeBatchRepository(db *gorm.DB) *TradeBatchRepository {
	return &TradeBatchRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *TradeBatchRepository) WithTx(tx *gorm.DB) *TradeBatchRepository {
	return &TradeBatchRepository{db: tx}
}

// Create creates a batch together with its trades
func (r *TradeBatchRepository) Create(batch *models.DailyTradeBatch) error {
	return r.db.Create(batch).Error
}

// GetByPlanAndDate retrieves the batch for a plan on a calendar date
func (r *TradeBatchRepository) GetByPlanAndDate(planID uint, date time.Time) (*models.DailyTradeBatch, error) {
	var batch models.DailyTradeBatch
	day := date.Truncate(24 * time.Hour)
	result := r.db.Preload("Trades", func(db *gorm.DB) *gorm.DB {
		return db.Order("executed_at ASC")
	}).Where("plan_id = ? AND trade_date = ?", planID, day).First(&batch)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, result.Error
	}
	return &batch, nil
}

// Replace deletes any existing batch for the date and inserts the new one.
// Used by the admin regenerate path; normal generation is create-once.
func (r *TradeBatchRepository) Replace(batch *models.DailyTradeBatch) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.DailyTradeBatch
		err := tx.Where("plan_id = ? AND trade_date = ?", batch.PlanID, batch.TradeDate).First(&existing).Error
		if err == nil {
			if err := tx.Where("batch_id = ?", existing.ID).Delete(&models.Trade{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(batch).Error
	})
}

// GetRecentByPlan retrieves the most recent batches for a plan
func (r *TradeBatchRepository) GetRecentByPlan(planID uint, limit int) ([]models.DailyTradeBatch, error) {
	var batches []models.DailyTradeBatch
	result := r.db.Where("plan_id = ?", planID).
		Order("trade_date DESC").
		Limit(limit).
		Find(&batches)
	return batches, result.Error
}

// GetTotalProfitLoss calculates the all-time fabricated P/L for a plan
func (r *TradeBatchRepository) GetTotalProfitLoss(planID uint) (float64, error) {
	var total struct {
		Sum float64
	}
	err := r.db.Model(&models.DailyTradeBatch{}).
		Select("COALESCE(SUM(actual_total), 0) as sum").
		Where("plan_id = ?", planID).
		Scan(&total).Error
	return total.Sum, err
}
