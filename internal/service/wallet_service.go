package service

import (
	"errors"
	"time"

	"github.com/cryptosim-ai/internal/models"
	"github.com/cryptosim-ai/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientAvailable = errors.New("insufficient available balance")
	ErrAlreadyReviewed       = errors.New("transaction already reviewed")
)

// WalletService handles deposit and withdrawal requests and their admin
// review. Only approval moves funds; withdrawals are checked against the
// available (unlocked) share of the balance.
type WalletService struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	txRepo      *repository.TransactionRepository
	simService  *SimulationService
	lockedRatio float64
	log         *logrus.Logger
}

// NewWalletService creates a new WalletService
func NewWalletService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	txRepo *repository.TransactionRepository,
	simService *SimulationService,
	lockedRatio float64,
	log *logrus.Logger,
) *WalletService {
	return &WalletService{
		db:          db,
		userRepo:    userRepo,
		txRepo:      txRepo,
		simService:  simService,
		lockedRatio: lockedRatio,
		log:         log,
	}
}

// AvailableBalance returns the withdrawable share of a balance. The
// remainder is presented as capital locked in open positions.
func (s *WalletService) AvailableBalance(balance float64) float64 {
	return balance * (1 - s.lockedRatio)
}

// RequestDeposit creates a pending deposit request
func (s *WalletService) RequestDeposit(userID uint, amount float64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx := &models.Transaction{
		Reference: uuid.New().String(),
		UserID:    userID,
		Type:      models.TransactionDeposit,
		Amount:    amount,
		Status:    models.TransactionPending,
	}
	if err := s.txRepo.Create(tx); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"amount":    amount,
		"reference": tx.Reference,
	}).Info("deposit requested")

	return tx, nil
}

// RequestWithdrawal creates a pending withdrawal request after checking
// the available balance
func (s *WalletService) RequestWithdrawal(userID uint, amount float64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if amount > s.AvailableBalance(user.Balance) {
		return nil, ErrInsufficientAvailable
	}

	tx := &models.Transaction{
		Reference: uuid.New().String(),
		UserID:    userID,
		Type:      models.TransactionWithdrawal,
		Amount:    amount,
		Status:    models.TransactionPending,
	}
	if err := s.txRepo.Create(tx); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"amount":    amount,
		"reference": tx.Reference,
	}).Info("withdrawal requested")

	return tx, nil
}

// Summary is the wallet overview payload
type Summary struct {
	Balance          float64 `json:"balance"`
	AvailableBalance float64 `json:"available_balance"`
	LockedBalance    float64 `json:"locked_balance"`
	TotalDeposited   float64 `json:"total_deposited"`
	TotalWithdrawn   float64 `json:"total_withdrawn"`
}

// GetSummary returns the wallet overview: balance split and the approved
// deposit and withdrawal totals
func (s *WalletService) GetSummary(userID uint) (*Summary, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	deposited, err := s.txRepo.GetApprovedTotal(userID, models.TransactionDeposit)
	if err != nil {
		return nil, err
	}
	withdrawn, err := s.txRepo.GetApprovedTotal(userID, models.TransactionWithdrawal)
	if err != nil {
		return nil, err
	}

	available := s.AvailableBalance(user.Balance)
	return &Summary{
		Balance:          user.Balance,
		AvailableBalance: available,
		LockedBalance:    user.Balance - available,
		TotalDeposited:   deposited,
		TotalWithdrawn:   withdrawn,
	}, nil
}

// GetTransactions returns a user's transactions with pagination
func (s *WalletService) GetTransactions(userID uint, page, pageSize int) ([]models.Transaction, int64, error) {
	return s.txRepo.GetByUserIDPaginated(userID, page, pageSize)
}

// GetTransactionsByStatus returns the admin review queue filtered by
// status
func (s *WalletService) GetTransactionsByStatus(status models.TransactionStatus, page, pageSize int) ([]models.Transaction, int64, error) {
	return s.txRepo.GetByStatusPaginated(status, page, pageSize)
}

// applyApproval mutates the user's balance for an approved request.
// Withdrawals are re-checked against the available balance at review
// time.
func (s *WalletService) applyApproval(user *models.User, tx *models.Transaction) error {
	switch tx.Type {
	case models.TransactionDeposit:
		user.Balance += tx.Amount
		user.TotalDeposited += tx.Amount
	case models.TransactionWithdrawal:
		if tx.Amount > s.AvailableBalance(user.Balance) {
			return ErrInsufficientAvailable
		}
		user.Balance -= tx.Amount
	}
	return nil
}

// ReviewTransaction approves or rejects a pending request. The balance
// change and the status flip commit in one transaction, so a failed
// review leaves the request pending and untouched. An approved request is
// then mirrored into the simulation plan ledger: deposits splice into the
// current month, withdrawals debit the plan balance.
func (s *WalletService) ReviewTransaction(adminID, txID uint, approve bool, note string) (*models.Transaction, error) {
	tx, err := s.txRepo.GetByID(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status != models.TransactionPending {
		return nil, ErrAlreadyReviewed
	}

	now := time.Now().UTC()
	tx.ReviewedBy = &adminID
	tx.ReviewedAt = &now
	tx.AdminNote = note

	if !approve {
		tx.Status = models.TransactionRejected
		if err := s.txRepo.Update(tx); err != nil {
			return nil, err
		}
		return tx, nil
	}

	user, err := s.userRepo.GetByID(tx.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.applyApproval(user, tx); err != nil {
		return nil, err
	}

	tx.Status = models.TransactionApproved
	err = s.db.Transaction(func(dbtx *gorm.DB) error {
		if err := s.userRepo.WithTx(dbtx).Update(user); err != nil {
			return err
		}
		return s.txRepo.WithTx(dbtx).Update(tx)
	})
	if err != nil {
		return nil, err
	}

	// users without a plan just hold funds
	switch tx.Type {
	case models.TransactionDeposit:
		if _, err := s.simService.ApplyDeposit(tx.UserID, tx.Amount); err != nil && !errors.Is(err, ErrPlanNotFound) {
			s.log.WithError(err).WithField("transaction", tx.Reference).Error("plan deposit sync failed")
		}
	case models.TransactionWithdrawal:
		if _, err := s.simService.ApplyWithdrawal(tx.UserID, tx.Amount); err != nil && !errors.Is(err, ErrPlanNotFound) {
			s.log.WithError(err).WithField("transaction", tx.Reference).Error("plan withdrawal sync failed")
		}
	}

	s.log.WithFields(logrus.Fields{
		"transaction": tx.Reference,
		"type":        tx.Type,
		"amount":      tx.Amount,
		"admin_id":    adminID,
	}).Info("transaction approved")

	return tx, nil
}
