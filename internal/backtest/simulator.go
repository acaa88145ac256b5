// Package backtest simulates strategy backtests for the demo dashboard.
package backtest

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/newthinker/signalhub/internal/core"
)

// SampleSize is the number of trades included in a simulated run.
const SampleSize = 15

const (
	minTrades   = 50
	tradeSpread = 100 // total trades fall in [minTrades, minTrades+tradeSpread)
	minWinRate  = 50
	winSpread   = 40
	winResult   = 5.0
	lossResult  = -3.0
	minEntry    = 50000.0
	entrySpread = 10000.0
)

// Simulator produces randomized backtest results for demo purposes.
// It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a simulator drawing from src. A nil src uses a randomly seeded PCG.
func New(src rand.Source) *Simulator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Simulator{rng: rand.New(src)}
}

// NewSeeded creates a deterministic simulator, mainly for tests.
func NewSeeded(seed uint64) *Simulator {
	return New(rand.NewPCG(seed, seed))
}

// Run simulates one backtest. Trades are dated 2024-05-25 backwards and
// returned newest first.
func (s *Simulator) Run() core.BacktestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalTrades := s.rng.IntN(tradeSpread) + minTrades
	winRate := s.rng.IntN(winSpread) + minWinRate

	trades := make([]core.Trade, 0, SampleSize)
	for i := 0; i < SampleSize; i++ {
		win := s.rng.Float64()*100 < float64(winRate)
		entry := s.rng.Float64()*entrySpread + minEntry

		result := lossResult
		if win {
			result = winResult
		}

		side := core.SideSell
		if s.rng.Float64() > 0.5 {
			side = core.SideBuy
		}

		trades = append(trades, core.Trade{
			Date:       fmt.Sprintf("2024-05-%02d", 25-i),
			Type:       side,
			EntryPrice: entry,
			ExitPrice:  entry * (1 + result/100),
			Result:     result,
		})
	}

	// ISO dates order lexically.
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Date > trades[j].Date
	})

	return core.BacktestResult{
		TotalTrades:      totalTrades,
		WinRate:          float64(winRate),
		CumulativeReturn: s.rng.Float64()*200 + 50,
		MaxDrawdown:      -(s.rng.Float64()*15 + 5),
		Trades:           trades,
	}
}

// SampleStats summarises the sampled trades of a result: how many won and
// the compounded return of the sample in percent.
func SampleStats(r core.BacktestResult) (wins int, compounded float64) {
	equity := 1.0
	for _, t := range r.Trades {
		if t.IsWin() {
			wins++
		}
		equity *= 1 + t.Result/100
	}
	return wins, (equity - 1) * 100
}
