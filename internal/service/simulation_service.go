package service

import (
	"errors"
	"time"

	"github.com/cryptosim-ai/internal/models"
	"github.com/cryptosim-ai/internal/repository"
	"github.com/cryptosim-ai/internal/simulation"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPlanExists       = errors.New("simulation already initialized for user")
	ErrPlanNotFound     = errors.New("no simulation plan for user")
	ErrAlreadyProcessed = errors.New("day already processed for user")
)

// SimulationService owns the lifecycle of simulation plans: creation,
// daily advancement, trade fabrication, and admin overrides.
type SimulationService struct {
	userRepo  *repository.UserRepository
	simRepo   *repository.SimulationRepository
	batchRepo *repository.TradeBatchRepository
	policy    *simulation.Policy
	log       *logrus.Logger
	userDelay time.Duration
}

// NewSimulationService creates a new SimulationService
func NewSimulationService(
	userRepo *repository.UserRepository,
	simRepo *repository.SimulationRepository,
	batchRepo *repository.TradeBatchRepository,
	policy *simulation.Policy,
	log *logrus.Logger,
	userDelay time.Duration,
) *SimulationService {
	return &SimulationService{
		userRepo:  userRepo,
		simRepo:   simRepo,
		batchRepo: batchRepo,
		policy:    policy,
		log:       log,
		userDelay: userDelay,
	}
}

// InitializeSimulation creates a 12-month plan from the user's current
// balance. An existing plan is rejected unless force is set (admin path),
// which discards the old plan first.
func (s *SimulationService) InitializeSimulation(userID uint, force bool) (*models.SimulationPlan, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.simRepo.ExistsByUserID(userID)
	if err != nil {
		return nil, err
	}
	if exists {
		if !force {
			return nil, ErrPlanExists
		}
		if err := s.simRepo.DeleteByUserID(userID); err != nil {
			return nil, err
		}
	}

	plan, err := s.policy.BuildPlan(userID, user.Balance, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.simRepo.Create(plan); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":          userID,
		"total_deposited":  plan.TotalDeposited,
		"projected_return": plan.TotalProjectedReturn,
	}).Info("simulation initialized")

	return plan, nil
}

// GetPlan returns a user's full plan
func (s *SimulationService) GetPlan(userID uint) (*models.SimulationPlan, error) {
	plan, err := s.simRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// SimulationStatus is the dashboard summary of a plan
type SimulationStatus struct {
	Initialized          bool              `json:"initialized"`
	Status               models.PlanStatus `json:"status,omitempty"`
	CurrentBalance       float64           `json:"current_balance"`
	TotalDeposited       float64           `json:"total_deposited"`
	TotalProjectedReturn float64           `json:"total_projected_return"`
	TotalInterestPaid    float64           `json:"total_interest_paid"`
	CurrentMonth         int               `json:"current_month"`
	DaysPaid             int               `json:"days_paid"`
	DaysInMonth          int               `json:"days_in_month"`
}

// GetStatus returns the plan summary for the dashboard
func (s *SimulationService) GetStatus(userID uint) (*SimulationStatus, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	status := &SimulationStatus{
		Initialized:          true,
		Status:               plan.Status,
		CurrentBalance:       plan.CurrentBalance,
		TotalDeposited:       plan.TotalDeposited,
		TotalProjectedReturn: plan.TotalProjectedReturn,
	}
	for i := range plan.Months {
		status.TotalInterestPaid += plan.Months[i].ActualInterestPaid
	}
	if m := plan.ActiveMonth(); m != nil {
		status.CurrentMonth = m.MonthNumber
		status.DaysPaid = m.DaysPaid
		status.DaysInMonth = m.DaysInMonth
	}
	return status, nil
}

// CurrentMonthView is the active month with its payout schedule
type CurrentMonthView struct {
	Month    models.MonthRecord        `json:"month"`
	Schedule simulation.PayoutSchedule `json:"schedule"`
}

// GetCurrentMonth returns the active month and its remaining schedule
func (s *SimulationService) GetCurrentMonth(userID uint) (*CurrentMonthView, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	m := plan.ActiveMonth()
	if m == nil {
		return nil, simulation.ErrNoActiveMonth
	}

	return &CurrentMonthView{
		Month:    *m,
		Schedule: simulation.SplitRemaining(m.RemainingAmount(), m.RemainingDays()),
	}, nil
}

// ProjectionMonth is one month of a hypothetical plan
type ProjectionMonth struct {
	MonthNumber       int     `json:"month_number"`
	StartingBalance   float64 `json:"starting_balance"`
	Rate              float64 `json:"rate"`
	ProjectedInterest float64 `json:"projected_interest"`
	EndingBalance     float64 `json:"ending_balance"`
	DailyPayout       float64 `json:"daily_payout"`
}

// Projection represents a hypothetical 12-month outcome for an amount
type Projection struct {
	Amount               float64           `json:"amount"`
	TotalProjectedReturn float64           `json:"total_projected_return"`
	FinalBalance         float64           `json:"final_balance"`
	Months               []ProjectionMonth `json:"months"`
}

// Project computes a 12-month projection for an arbitrary amount without
// persisting anything.
func (s *SimulationService) Project(amount float64) (*Projection, error) {
	plan, err := s.policy.BuildPlan(0, amount, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	proj := &Projection{
		Amount:               amount,
		TotalProjectedReturn: plan.TotalProjectedReturn,
		Months:               make([]ProjectionMonth, 0, len(plan.Months)),
	}
	for _, m := range plan.Months {
		proj.Months = append(proj.Months, ProjectionMonth{
			MonthNumber:       m.MonthNumber,
			StartingBalance:   m.StartingBalance,
			Rate:              m.LockedRate,
			ProjectedInterest: m.ProjectedInterest,
			EndingBalance:     m.EndingBalance,
			DailyPayout:       m.DailyPayout,
		})
		proj.FinalBalance = m.EndingBalance
	}
	return proj, nil
}

// ListPlans returns all plans for the admin overview
func (s *SimulationService) ListPlans(page, pageSize int) ([]models.SimulationPlan, int64, error) {
	return s.simRepo.GetAllPaginated(page, pageSize)
}

// ProcessDailyForUser advances one user's plan by one simulated day:
// applies the daily payout under a row lock, fabricates the day's trade
// batch, and credits the user balance, all in one transaction. A batch
// already existing for the date makes the call a no-op, which keeps
// scheduler reruns idempotent; every processed day leaves a batch, even a
// zero-payout one.
func (s *SimulationService) ProcessDailyForUser(userID uint, date time.Time) (*simulation.DayResult, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.batchRepo.GetByPlanAndDate(plan.ID, date); err == nil {
		return nil, ErrAlreadyProcessed
	} else if !errors.Is(err, repository.ErrBatchNotFound) {
		return nil, err
	}

	var result *simulation.DayResult
	_, err = s.simRepo.UpdateLocked(userID, func(tx *gorm.DB, p *models.SimulationPlan) error {
		r, batch, err := s.policy.ProcessDay(p, date)
		if err != nil {
			return err
		}
		result = r
		if err := s.batchRepo.WithTx(tx).Create(batch); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).UpdateBalance(userID, p.CurrentBalance)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"month":   result.MonthNumber,
		"payout":  result.Payout,
		"day":     result.DaysPaid,
	}).Info("daily payout applied")

	return result, nil
}

// BatchResult summarizes one scheduler run over all active plans
type BatchResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ProcessDailyBatch advances every active plan by one day. Failures are
// per-user: one bad plan is logged and skipped, the rest of the batch
// continues. A short delay paces the writes against the store.
func (s *SimulationService) ProcessDailyBatch(date time.Time) (*BatchResult, error) {
	ids, err := s.simRepo.GetActiveUserIDs()
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for i, userID := range ids {
		if i > 0 && s.userDelay > 0 {
			time.Sleep(s.userDelay)
		}

		_, err := s.ProcessDailyForUser(userID, date)
		switch {
		case err == nil:
			result.Processed++
		case errors.Is(err, ErrAlreadyProcessed):
			result.Skipped++
		default:
			result.Failed++
			s.log.WithError(err).WithField("user_id", userID).Error("daily processing failed for user")
		}
	}

	s.log.WithFields(logrus.Fields{
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}).Info("daily batch finished")

	return result, nil
}

// OverrideMonthRate applies an admin rate override to one month and
// recomputes every later month. Runs under the same row lock as the daily
// tick, so the two cannot interleave on one plan.
func (s *SimulationService) OverrideMonthRate(userID uint, monthNumber int, newRate float64) (*models.SimulationPlan, error) {
	plan, err := s.simRepo.UpdateLocked(userID, func(_ *gorm.DB, p *models.SimulationPlan) error {
		return s.policy.RecomputeFromMonth(p, monthNumber, newRate)
	})
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"month":   monthNumber,
		"rate":    newRate,
	}).Info("month rate overridden")

	return plan, nil
}

// ApplyDeposit splices an approved deposit into an active plan mid-month
func (s *SimulationService) ApplyDeposit(userID uint, amount float64) (*models.SimulationPlan, error) {
	plan, err := s.simRepo.UpdateLocked(userID, func(_ *gorm.DB, p *models.SimulationPlan) error {
		return s.policy.ApplyDeposit(p, amount)
	})
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ApplyWithdrawal debits an approved withdrawal from the plan ledger so
// the next daily tick carries the reduced balance forward.
func (s *SimulationService) ApplyWithdrawal(userID uint, amount float64) (*models.SimulationPlan, error) {
	plan, err := s.simRepo.UpdateLocked(userID, func(_ *gorm.DB, p *models.SimulationPlan) error {
		return simulation.ApplyWithdrawal(p, amount)
	})
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// GetTradeBatch returns the fabricated trades for a user on a date
func (s *SimulationService) GetTradeBatch(userID uint, date time.Time) (*models.DailyTradeBatch, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}
	return s.batchRepo.GetByPlanAndDate(plan.ID, date)
}

// RegenerateTradeBatch rebuilds the trade batch for a date, keeping the
// original target amount when a batch already exists. Admin-only path.
func (s *SimulationService) RegenerateTradeBatch(userID uint, date time.Time) (*models.DailyTradeBatch, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}

	target := 0.0
	if existing, err := s.batchRepo.GetByPlanAndDate(plan.ID, date); err == nil {
		target = existing.TargetAmount
	} else if !errors.Is(err, repository.ErrBatchNotFound) {
		return nil, err
	}
	if target == 0 {
		m := plan.ActiveMonth()
		if m == nil {
			return nil, simulation.ErrNoActiveMonth
		}
		target = m.DailyPayout
	}

	batch, err := s.policy.SynthesizeDay(plan.ID, date, target, plan.CurrentBalance)
	if err != nil {
		return nil, err
	}
	if err := s.batchRepo.Replace(batch); err != nil {
		return nil, err
	}
	return batch, nil
}
