package service

import (
	"context"
	"time"

	"github.com/newthinker/signalhub/internal/core"
)

// RunBacktest simulates a backtest. Results are always synthetic.
func (s *Service) RunBacktest(ctx context.Context) (Result[core.BacktestResult], error) {
	start := time.Now()
	if err := sleep(ctx, s.opts.BacktestDelay); err != nil {
		return Result[core.BacktestResult]{}, err
	}

	res := s.simulator.Run()
	s.metrics.RecordBacktest()
	s.metrics.RecordOperation("backtest", string(SourceMock), time.Since(start).Seconds())
	return Result[core.BacktestResult]{Value: res, Source: SourceMock}, nil
}
