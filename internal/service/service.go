// Package service is the data-access facade used by the API and the CLI.
// Each operation tries the configured backend and falls back to the
// in-memory dataset when the backend is absent or fails.
package service

import (
	"context"
	"time"

	"github.com/newthinker/signalhub/internal/backtest"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/store"
	"github.com/newthinker/signalhub/internal/store/memory"
	"go.uber.org/zap"
)

// Source tells which path served an operation.
type Source string

const (
	SourceBackend  Source = "backend"  // served by the configured backend
	SourceFallback Source = "fallback" // backend failed, served from memory
	SourceMock     Source = "mock"     // no backend configured
)

// Result wraps an operation value with the path that produced it.
// Degraded holds the backend error when Source is SourceFallback.
type Result[T any] struct {
	Value    T
	Source   Source
	Degraded error
}

// Options tunes the fallback path.
type Options struct {
	Delay          time.Duration // simulated latency of mock operations
	BacktestDelay  time.Duration
	DeleteIdentity bool // DeleteUser also removes the login identity
}

// DefaultOptions mirrors the demo latencies.
func DefaultOptions() Options {
	return Options{
		Delay:         800 * time.Millisecond,
		BacktestDelay: 2 * time.Second,
	}
}

// Recorder receives per-operation metrics. *metrics.Registry implements it.
type Recorder interface {
	RecordOperation(operation, source string, duration float64)
	RecordBackendError(operation string)
	RecordBacktest()
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, float64) {}
func (nopRecorder) RecordBackendError(string)               {}
func (nopRecorder) RecordBacktest()                         {}

// Service composes the primary backend with the in-memory fallback.
type Service struct {
	primary   store.Backend
	fallback  store.Backend
	opts      Options
	logger    *zap.Logger
	metrics   Recorder
	simulator *backtest.Simulator
}

// New creates a Service. primary may be nil (mock mode). A nil fallback is
// replaced by a memory store seeded with the demo dataset.
func New(primary, fallback store.Backend, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fallback == nil {
		fallback = memory.NewDefault()
	}
	return &Service{
		primary:   primary,
		fallback:  fallback,
		opts:      opts,
		logger:    logger,
		metrics:   nopRecorder{},
		simulator: backtest.New(nil),
	}
}

// SetRecorder sets the metrics recorder.
func (s *Service) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.metrics = r
}

// SetSimulator replaces the backtest simulator.
func (s *Service) SetSimulator(sim *backtest.Simulator) {
	s.simulator = sim
}

// Mode reports the backend in use, or "mock".
func (s *Service) Mode() string {
	if s.primary == nil {
		return string(SourceMock)
	}
	return s.primary.Name()
}

// Primary returns the configured backend, nil in mock mode.
func (s *Service) Primary() store.Backend {
	return s.primary
}

// Close closes the primary backend.
func (s *Service) Close() error {
	if s.primary == nil {
		return nil
	}
	return s.primary.Close()
}

type call[T any] func(ctx context.Context, b store.Backend) (T, error)

// attempt runs remote against the primary backend and falls back to local
// against the memory store after delay. A nil remote always uses the fallback.
// Errors from local are hard failures.
func attempt[T any](ctx context.Context, s *Service, op string, delay time.Duration, remote, local call[T]) (Result[T], error) {
	start := time.Now()

	var degraded error
	if s.primary != nil && remote != nil {
		v, err := remote(ctx, s.primary)
		if err == nil {
			s.metrics.RecordOperation(op, string(SourceBackend), time.Since(start).Seconds())
			return Result[T]{Value: v, Source: SourceBackend}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result[T]{}, ctxErr
		}

		s.logger.Warn("backend call failed, serving fallback",
			zap.String("operation", op),
			zap.String("backend", s.primary.Name()),
			zap.Error(err))
		s.metrics.RecordBackendError(op)
		degraded = core.WrapError(core.ErrBackendFailed, err)
	}

	if err := sleep(ctx, delay); err != nil {
		return Result[T]{}, err
	}

	v, err := local(ctx, s.fallback)
	if err != nil {
		return Result[T]{}, err
	}

	source := SourceMock
	if degraded != nil {
		source = SourceFallback
	}
	s.metrics.RecordOperation(op, string(source), time.Since(start).Seconds())
	return Result[T]{Value: v, Source: source, Degraded: degraded}, nil
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
