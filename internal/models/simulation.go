package models

import (
	"time"

	"gorm.io/gorm"
)

// PlanStatus represents the lifecycle state of a simulation plan
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
)

// MonthStatus represents the lifecycle state of one month in a plan
type MonthStatus string

const (
	MonthPending   MonthStatus = "pending"
	MonthActive    MonthStatus = "active"
	MonthCompleted MonthStatus = "completed"
)

// SimulationPlan is the 12-month amortization schedule of simulated
// interest for one user. A user has at most one plan; it is never deleted,
// only advanced and recomputed.
type SimulationPlan struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UserID               uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalDeposited       float64        `gorm:"type:decimal(20,8);not null" json:"total_deposited"`
	TotalProjectedReturn float64        `gorm:"type:decimal(20,8);not null" json:"total_projected_return"`
	CurrentBalance       float64        `gorm:"type:decimal(20,8);not null" json:"current_balance"`
	Status               PlanStatus     `gorm:"size:20;not null;default:'active'" json:"status"`
	StartedAt            time.Time      `json:"started_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User   User          `gorm:"foreignKey:UserID" json:"-"`
	Months []MonthRecord `gorm:"foreignKey:PlanID" json:"months,omitempty"`
}

// TableName specifies the table name for SimulationPlan model
func (SimulationPlan) TableName() string {
	return "simulation_plans"
}

// ActiveMonth returns the currently active month record, or nil
func (p *SimulationPlan) ActiveMonth() *MonthRecord {
	for i := range p.Months {
		if p.Months[i].Status == MonthActive {
			return &p.Months[i]
		}
	}
	return nil
}

// MonthRecord is one month of a simulation plan. ProjectedInterest is
// StartingBalance * LockedRate; DailyPayout spreads it evenly over the
// month and is recomputed when a deposit lands mid-month.
type MonthRecord struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	PlanID             uint        `gorm:"index;not null" json:"plan_id"`
	MonthNumber        int         `gorm:"not null" json:"month_number"`
	StartingBalance    float64     `gorm:"type:decimal(20,8);not null" json:"starting_balance"`
	LockedRate         float64     `gorm:"type:decimal(10,6);not null" json:"locked_rate"`
	ProjectedInterest  float64     `gorm:"type:decimal(20,8);not null" json:"projected_interest"`
	EndingBalance      float64     `gorm:"type:decimal(20,8);not null" json:"ending_balance"`
	DaysInMonth        int         `gorm:"not null" json:"days_in_month"`
	DaysPaid           int         `gorm:"not null;default:0" json:"days_paid"`
	DailyPayout        float64     `gorm:"type:decimal(20,8);not null" json:"daily_payout"`
	Status             MonthStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	ActualInterestPaid float64     `gorm:"type:decimal(20,8);default:0" json:"actual_interest_paid"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	// Relations
	Plan SimulationPlan `gorm:"foreignKey:PlanID" json:"-"`
}

// TableName specifies the table name for MonthRecord model
func (MonthRecord) TableName() string {
	return "month_records"
}

// RemainingDays returns the number of unpaid days left in the month
func (m *MonthRecord) RemainingDays() int {
	return m.DaysInMonth - m.DaysPaid
}

// RemainingAmount returns the interest still owed for the month
func (m *MonthRecord) RemainingAmount() float64 {
	return m.ProjectedInterest - m.ActualInterestPaid
}
