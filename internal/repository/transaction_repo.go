package repository

import (
	"errors"

	"github.com/cryptosim-ai/internal/models"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// TransactionRepository handles deposit/withdrawal request data access
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a copy of the repository bound to an open transaction
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(tx *models.Transaction) error {
	return r.db.Create(tx).Error
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var tx models.Transaction
	result := r.db.First(&tx, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, result.Error
	}
	return &tx, nil
}

// GetByUserIDPaginated retrieves transactions for a user with pagination
func (r *TransactionRepository) GetByUserIDPaginated(userID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64

	if err := r.db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&txs)

	return txs, total, result.Error
}

// GetByStatusPaginated retrieves transactions by status across all users
func (r *TransactionRepository) GetByStatusPaginated(status models.TransactionStatus, page, pageSize int) ([]models.Transaction, int64, error) {
	var txs []models.Transaction
	var total int64

	if err := r.db.Model(&models.Transaction{}).Where("status = ?", status).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	result := r.db.Where("status = ?", status).
		Order("created_at ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&txs)

	return txs, total, result.Error
}

// Update updates a transaction
func (r *TransactionRepository) Update(tx *models.Transaction) error {
	return r.db.Save(tx).Error
}

// GetApprovedTotal calculates the approved total for a user and type
func (r *TransactionRepository) GetApprovedTotal(userID uint, txType models.TransactionType) (float64, error) {
	var total struct {
		Sum float64
	}
	err := r.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0) as sum").
		Where("user_id = ? AND type = ? AND status = ?", userID, txType, models.TransactionApproved).
		Scan(&total).Error
	return total.Sum, err
}
