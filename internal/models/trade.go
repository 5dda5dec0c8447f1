package models

import (
	"time"
)

// TradeSide represents the direction of a synthetic trade
type TradeSide string

const (
	TradeSideLong  TradeSide = "LONG"
	TradeSideShort TradeSide = "SHORT"
)

// DailyTradeBatch holds the synthetic trades generated for one plan on one
// calendar date. The signed sum of its trades reconciles to TargetAmount
// within the configured tolerance.
type DailyTradeBatch struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PlanID       uint      `gorm:"index:idx_batch_plan_date,unique;not null" json:"plan_id"`
	TradeDate    time.Time `gorm:"index:idx_batch_plan_date,unique;type:date;not null" json:"trade_date"`
	TargetAmount float64   `gorm:"type:decimal(20,8);not null" json:"target_amount"`
	ActualTotal  float64   `gorm:"type:decimal(20,8);not null" json:"actual_total"`
	TradeCount   int       `gorm:"not null" json:"trade_count"`
	WinCount     int       `gorm:"not null" json:"win_count"`
	LockedAmount float64   `gorm:"type:decimal(20,8);not null" json:"locked_amount"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Plan   SimulationPlan `gorm:"foreignKey:PlanID" json:"-"`
	Trades []Trade        `gorm:"foreignKey:BatchID" json:"trades,omitempty"`
}

// TableName specifies the table name for DailyTradeBatch model
func (DailyTradeBatch) TableName() string {
	return "daily_trade_batches"
}

// WinRate returns the fraction of winning trades in the batch
func (b *DailyTradeBatch) WinRate() float64 {
	if b.TradeCount == 0 {
		return 0
	}
	return float64(b.WinCount) / float64(b.TradeCount)
}

// Trade is one fabricated trade execution inside a daily batch
type Trade struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BatchID     uint      `gorm:"index;not null" json:"batch_id"`
	Symbol      string    `gorm:"size:20;not null" json:"symbol"`
	Side        TradeSide `gorm:"size:10;not null" json:"side"`
	Amount      float64   `gorm:"type:decimal(20,8);not null" json:"amount"`
	ProfitLoss  float64   `gorm:"type:decimal(20,8);not null" json:"profit_loss"`
	ExecutedAt  time.Time `gorm:"index" json:"executed_at"`
	DurationSec int       `gorm:"not null" json:"duration_sec"`

	// Relations
	Batch DailyTradeBatch `gorm:"foreignKey:BatchID" json:"-"`
}

// TableName specifies the table name for Trade model
func (Trade) TableName() string {
	return "trades"
}
