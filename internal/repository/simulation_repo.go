package repository

import (
	"errors"

	"github.com/cryptosim-ai/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPlanNotFound = errors.New("simulation plan not found")
)

// SimulationRepository handles simulation plan data access
type SimulationRepository struct {
	db *gorm.DB
}

// NewSimulationRepository creates a new SimulationRepository
func NewSimulationRepository(db *gorm.DB) *SimulationRepository {
	return &SimulationRepository{db: db}
}

// Create creates a new plan together with its month records
func (r *SimulationRepository) Create(plan *models.SimulationPlan) error {
	return r.db.Create(plan).Error
}

// GetByUserID retrieves a user's plan with months ordered by month number
func (r *SimulationRepository) GetByUserID(userID uint) (*models.SimulationPlan, error) {
	var plan models.SimulationPlan
	result := r.db.Preload("Months", func(db *gorm.DB) *gorm.DB {
		return db.Order("month_number ASC")
	}).Where("user_id = ?", userID).First(&plan)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, result.Error
	}
	return &plan, nil
}

// ExistsByUserID checks whether a user already has a plan
func (r *SimulationRepository) ExistsByUserID(userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.SimulationPlan{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

// GetActiveUserIDs returns the user IDs of all active plans
func (r *SimulationRepository) GetActiveUserIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.SimulationPlan{}).
		Where("status = ?", models.PlanActive).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// GetAllPaginated retrieves plans across all users for the admin overview
func (r *SimulationRepository) GetAllPaginated(page, pageSize int) ([]models.SimulationPlan, int64, error) {
	var plans []models.SimulationPlan
	var total int64

	if err := r.db.Model(&models.SimulationPlan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&plans)

	return plans, total, result.Error
}

// DeleteByUserID hard deletes a user's plan and its months. Used only by
// the admin force-reinitialize path.
func (r *SimulationRepository) DeleteByUserID(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var plan models.SimulationPlan
		if err := tx.Where("user_id = ?", userID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Unscoped().Where("plan_id = ?", plan.ID).Delete(&models.MonthRecord{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&plan).Error
	})
}

// UpdateLocked loads the user's plan under a row lock, applies fn, and
// persists the plan and its months in one transaction. Scheduler ticks and
// admin overrides on the same plan serialize on the row lock. fn receives
// the transaction handle so related rows can be written atomically with
// the plan mutation.
func (r *SimulationRepository) UpdateLocked(userID uint, fn func(tx *gorm.DB, plan *models.SimulationPlan) error) (*models.SimulationPlan, error) {
	var plan models.SimulationPlan
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).First(&plan)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrPlanNotFound
			}
			return result.Error
		}

		if err := tx.Order("month_number ASC").
			Where("plan_id = ?", plan.ID).Find(&plan.Months).Error; err != nil {
			return err
		}

		if err := fn(tx, &plan); err != nil {
			return err
		}

		if err := tx.Omit("Months").Save(&plan).Error; err != nil {
			return err
		}
		for i := range plan.Months {
			plan.Months[i].PlanID = plan.ID
			if err := tx.Save(&plan.Months[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
