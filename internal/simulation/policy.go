package simulation

import (
	"math/rand"
	"sync"
	"time"

	"github.com/cryptosim-ai/internal/config"
)

// Default symbols used for fabricated trades
var DefaultSymbols = []string{
	"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT",
	"ADAUSDT", "DOGEUSDT", "AVAXUSDT", "DOTUSDT", "LINKUSDT",
	"LTCUSDT", "UNIUSDT", "ATOMUSDT", "NEARUSDT", "AAVEUSDT",
}

// VarianceProfile controls how aggressively intraday P/L and timestamps
// are shaped.
type VarianceProfile string

const (
	// ProfileStandard spreads trades fairly evenly with moderate P/L spread.
	ProfileStandard VarianceProfile = "standard"
	// ProfileAggressive clusters trades into volatility bursts and widens
	// the per-trade P/L spread.
	ProfileAggressive VarianceProfile = "aggressive"
)

// TradeCountFunc returns the number of trades to fabricate for a day given
// the account balance. Expressed as an injected policy so changing the
// counting strategy is a constructor swap, not an edit inside the
// synthesizer.
type TradeCountFunc func(rng *rand.Rand, balance float64) int

// FlatTradeCounts returns a count policy that draws uniformly from
// [min, max] regardless of balance. This is the current product behavior.
func FlatTradeCounts(min, max int) TradeCountFunc {
	return func(rng *rand.Rand, _ float64) int {
		return min + rng.Intn(max-min+1)
	}
}

// TieredTradeCounts returns the legacy balance-tiered count policy. Tiers
// map a balance ceiling to a [min, max] draw; balances above every ceiling
// use the last tier.
type CountTier struct {
	BalanceBelow float64
	Min, Max     int
}

func TieredTradeCounts(tiers []CountTier) TradeCountFunc {
	return func(rng *rand.Rand, balance float64) int {
		for _, t := range tiers {
			if balance < t.BalanceBelow {
				return t.Min + rng.Intn(t.Max-t.Min+1)
			}
		}
		last := tiers[len(tiers)-1]
		return last.Min + rng.Intn(last.Max-last.Min+1)
	}
}

// Policy bundles every tunable the simulation core draws from. A Policy is
// safe for concurrent use.
type Policy struct {
	MinDeposit       float64
	RateMin, RateMax float64
	PlanMonths       int
	WinRateMin       float64
	WinRateMax       float64
	LockedRatio      float64
	Epsilon          float64
	Profile          VarianceProfile
	TradeCount       TradeCountFunc
	Symbols          []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPolicy builds a Policy from configuration with a time-seeded source.
func NewPolicy(cfg config.SimulationConfig) *Policy {
	return NewPolicyWithSource(cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewPolicyWithSource builds a Policy over an explicit random source.
// Tests inject a seeded source to make draws reproducible.
func NewPolicyWithSource(cfg config.SimulationConfig, rng *rand.Rand) *Policy {
	return &Policy{
		MinDeposit:  cfg.MinDeposit,
		RateMin:     cfg.MonthlyRateMin,
		RateMax:     cfg.MonthlyRateMax,
		PlanMonths:  cfg.PlanMonths,
		WinRateMin:  cfg.WinRateMin,
		WinRateMax:  cfg.WinRateMax,
		LockedRatio: cfg.LockedRatio,
		Epsilon:     cfg.ReconcileEpsilon,
		Profile:     ProfileStandard,
		TradeCount:  FlatTradeCounts(cfg.TradeCountMin, cfg.TradeCountMax),
		Symbols:     DefaultSymbols,
		rng:         rng,
	}
}

// SampleMonthlyRate draws a monthly return rate from the configured closed
// band. The distribution shape is uniform; only the band is contractual.
func (p *Policy) SampleMonthlyRate(monthNumber int) float64 {
	_ = monthNumber // every month draws from the same band
	return p.RateMin + p.float64()*(p.RateMax-p.RateMin)
}

// SampleWinRate draws a daily win rate from the configured band
func (p *Policy) SampleWinRate() float64 {
	return p.WinRateMin + p.float64()*(p.WinRateMax-p.WinRateMin)
}

func (p *Policy) float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *Policy) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

func (p *Policy) normFloat64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.NormFloat64()
}

func (p *Policy) tradeCount(balance float64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.TradeCount(p.rng, balance)
}
