package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/cryptosim-ai/internal/models"
)

var (
	// ErrBelowMinimumDeposit is returned when a balance is too small to
	// initialize a plan
	ErrBelowMinimumDeposit = errors.New("balance below minimum deposit")
	// ErrInvalidRate is returned for an override rate outside (0, 1)
	ErrInvalidRate = errors.New("rate must be a fraction between 0 and 1")
	// ErrInvalidAmount is returned for a non-positive deposit amount
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrNoActiveMonth is returned when a plan has no month left to pay
	ErrNoActiveMonth = errors.New("plan has no active month")
	// ErrInsufficientBalance is returned for a withdrawal larger than the
	// plan's current balance
	ErrInsufficientBalance = errors.New("withdrawal exceeds plan balance")
)

// BuildPlan builds a 12-month compounding plan for a starting balance.
// Each month draws a rate from the policy band, accrues
// interest = balance * rate, and carries the ending balance into the next
// month. The first month starts active.
func (p *Policy) BuildPlan(userID uint, balance float64, startedAt time.Time) (*models.SimulationPlan, error) {
	if balance < p.MinDeposit {
		return nil, fmt.Errorf("%w: have %.2f, need %.2f", ErrBelowMinimumDeposit, balance, p.MinDeposit)
	}

	plan := &models.SimulationPlan{
		UserID:         userID,
		TotalDeposited: balance,
		CurrentBalance: balance,
		Status:         models.PlanActive,
		StartedAt:      startedAt,
		Months:         make([]models.MonthRecord, 0, p.PlanMonths),
	}

	running := balance
	var totalReturn float64
	for i := 1; i <= p.PlanMonths; i++ {
		rate := p.SampleMonthlyRate(i)
		interest := running * rate
		ending := running + interest

		monthStart := startedAt.AddDate(0, i-1, 0)
		days := daysInCalendarMonth(monthStart)
		schedule := SplitEven(interest, days)

		status := models.MonthPending
		if i == 1 {
			status = models.MonthActive
		}

		plan.Months = append(plan.Months, models.MonthRecord{
			MonthNumber:       i,
			StartingBalance:   running,
			LockedRate:        rate,
			ProjectedInterest: interest,
			EndingBalance:     ending,
			DaysInMonth:       days,
			DailyPayout:       schedule.DailyPayout,
			Status:            status,
		})

		totalReturn += interest
		running = ending
	}

	plan.TotalProjectedReturn = totalReturn
	return plan, nil
}

// RecomputeFromMonth applies an overridden rate to month monthNumber and
// replays the compounding chain through the final month. Months before
// monthNumber are untouched; interest already paid is preserved, so an
// active month only respreads what is still owed over its remaining days.
func (p *Policy) RecomputeFromMonth(plan *models.SimulationPlan, monthNumber int, newRate float64) error {
	if newRate <= 0 || newRate >= 1 {
		return ErrInvalidRate
	}
	if monthNumber < 1 || monthNumber > len(plan.Months) {
		return fmt.Errorf("month %d out of range 1..%d", monthNumber, len(plan.Months))
	}

	var totalReturn float64
	for i := range plan.Months {
		m := &plan.Months[i]
		if m.MonthNumber < monthNumber {
			totalReturn += m.ProjectedInterest
			continue
		}

		if m.MonthNumber == monthNumber {
			m.LockedRate = newRate
		} else {
			prev := plan.Months[i-1]
			m.StartingBalance = prev.EndingBalance
		}

		m.ProjectedInterest = m.StartingBalance * m.LockedRate
		m.EndingBalance = m.StartingBalance + m.ProjectedInterest
		p.respread(m)
		totalReturn += m.ProjectedInterest
	}

	plan.TotalProjectedReturn = totalReturn
	return nil
}

// ApplyDeposit splices an approved deposit into the plan mid-month: the
// active month's starting balance absorbs the deposit, its remaining
// payout schedule is recomputed, and every later month re-chains. Interest
// already paid out is not revisited.
func (p *Policy) ApplyDeposit(plan *models.SimulationPlan, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	plan.TotalDeposited += amount
	plan.CurrentBalance += amount

	active := plan.ActiveMonth()
	if active == nil {
		// completed plan keeps the funds but has no schedule to rewrite
		return nil
	}

	rechain := false
	for i := range plan.Months {
		m := &plan.Months[i]
		switch {
		case m.MonthNumber == active.MonthNumber:
			m.StartingBalance += amount
			m.ProjectedInterest = m.StartingBalance * m.LockedRate
			m.EndingBalance = m.StartingBalance + m.ProjectedInterest
			p.respread(m)
			rechain = true
		case rechain:
			m.StartingBalance = plan.Months[i-1].EndingBalance
			m.ProjectedInterest = m.StartingBalance * m.LockedRate
			m.EndingBalance = m.StartingBalance + m.ProjectedInterest
			p.respread(m)
		}
	}

	var totalReturn float64
	for i := range plan.Months {
		totalReturn += plan.Months[i].ProjectedInterest
	}
	plan.TotalProjectedReturn = totalReturn
	return nil
}

// respread rebuilds a month's daily payout after its projected interest
// changed. Completed months keep their history; months with paid days
// spread only the unpaid remainder. A month that has already paid its new
// projection keeps what was paid and stops paying: the payout never goes
// negative.
func (p *Policy) respread(m *models.MonthRecord) {
	if m.Status == models.MonthCompleted {
		return
	}
	if m.DaysPaid > 0 {
		if m.RemainingAmount() <= 0 {
			m.DailyPayout = 0
			return
		}
		m.DailyPayout = SplitRemaining(m.RemainingAmount(), m.RemainingDays()).DailyPayout
		return
	}
	m.DailyPayout = SplitEven(m.ProjectedInterest, m.DaysInMonth).DailyPayout
}

// ApplyWithdrawal debits an approved withdrawal from the plan ledger. The
// payout schedule is untouched: months keep paying the interest locked at
// plan build time.
func ApplyWithdrawal(plan *models.SimulationPlan, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > plan.CurrentBalance {
		return fmt.Errorf("%w: have %.2f, want %.2f", ErrInsufficientBalance, plan.CurrentBalance, amount)
	}
	plan.CurrentBalance -= amount
	return nil
}

// DayResult summarizes one simulated day applied to a plan
type DayResult struct {
	MonthNumber    int     `json:"month_number"`
	Payout         float64 `json:"payout"`
	DaysPaid       int     `json:"days_paid"`
	MonthCompleted bool    `json:"month_completed"`
	PlanCompleted  bool    `json:"plan_completed"`
}

// AdvanceDay advances a plan by one simulated day: the active month pays
// out one daily payout, and when its days are exhausted it completes and
// the next month activates. The final day of a month pays the exact
// remainder so rounding never leaks across months.
func AdvanceDay(plan *models.SimulationPlan) (*DayResult, error) {
	active := plan.ActiveMonth()
	if active == nil {
		return nil, ErrNoActiveMonth
	}

	payout := active.DailyPayout
	if active.RemainingDays() == 1 {
		payout = active.RemainingAmount()
	}
	if payout < 0 {
		// overpaid month after a downward override: paid interest stays
		payout = 0
	}

	active.ActualInterestPaid += payout
	active.DaysPaid++
	plan.CurrentBalance += payout

	result := &DayResult{
		MonthNumber: active.MonthNumber,
		Payout:      payout,
		DaysPaid:    active.DaysPaid,
	}

	if active.DaysPaid >= active.DaysInMonth {
		active.Status = models.MonthCompleted
		result.MonthCompleted = true

		next := nextMonth(plan, active.MonthNumber)
		if next != nil {
			next.Status = models.MonthActive
		} else {
			plan.Status = models.PlanCompleted
			result.PlanCompleted = true
		}
	}

	return result, nil
}

// ProcessDay advances a plan one day and fabricates the day's trade batch.
// A zero-payout day still produces an empty batch so the processed date is
// recorded either way.
func (p *Policy) ProcessDay(plan *models.SimulationPlan, date time.Time) (*DayResult, *models.DailyTradeBatch, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	result, err := AdvanceDay(plan)
	if err != nil {
		return nil, nil, err
	}

	batch := &models.DailyTradeBatch{PlanID: plan.ID, TradeDate: day}
	if result.Payout > 0 {
		batch, err = p.SynthesizeDay(plan.ID, day, result.Payout, plan.CurrentBalance)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to synthesize trades: %w", err)
		}
	}
	return result, batch, nil
}

func nextMonth(plan *models.SimulationPlan, after int) *models.MonthRecord {
	for i := range plan.Months {
		if plan.Months[i].MonthNumber == after+1 {
			return &plan.Months[i]
		}
	}
	return nil
}

func daysInCalendarMonth(t time.Time) int {
	// day 0 of the next month is the last day of this one
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
