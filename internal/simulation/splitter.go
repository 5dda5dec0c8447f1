package simulation

// PayoutSchedule is the per-day breakdown of a month's projected interest
type PayoutSchedule struct {
	DailyPayout     float64 `json:"daily_payout"`
	RemainingDays   int     `json:"remaining_days"`
	RemainingAmount float64 `json:"remaining_amount"`
}

// SplitEven spreads a month's projected interest evenly over its days.
// There is no front or back loading: dailyPayout * daysInMonth
// reconstructs the interest exactly.
func SplitEven(projectedInterest float64, daysInMonth int) PayoutSchedule {
	if daysInMonth <= 0 {
		return PayoutSchedule{}
	}
	return PayoutSchedule{
		DailyPayout:     projectedInterest / float64(daysInMonth),
		RemainingDays:   daysInMonth,
		RemainingAmount: projectedInterest,
	}
}

// SplitRemaining recomputes the schedule mid-month so the cumulative
// month-end target is still met: whatever interest has not been paid yet
// is spread evenly over the days that are left.
func SplitRemaining(remainingAmount float64, remainingDays int) PayoutSchedule {
	if remainingDays <= 0 {
		return PayoutSchedule{RemainingAmount: remainingAmount}
	}
	return PayoutSchedule{
		DailyPayout:     remainingAmount / float64(remainingDays),
		RemainingDays:   remainingDays,
		RemainingAmount: remainingAmount,
	}
}
