// Package analysis turns chart screenshots into structured trade analyses
// using a multimodal LLM provider.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/signalhub/internal/archive"
	"github.com/newthinker/signalhub/internal/config"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/llm"
	"github.com/newthinker/signalhub/internal/llm/factory"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Recorder receives analysis metrics. *metrics.Registry satisfies it.
type Recorder interface {
	RecordAnalysis(provider, status string, duration float64)
	RecordArchive(status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAnalysis(string, string, float64) {}
func (nopRecorder) RecordArchive(string)                   {}

// Analyzer runs chart analyses against the configured provider.
type Analyzer struct {
	cfg         config.LLMConfig
	newProvider func(context.Context, config.LLMConfig) (llm.Provider, error)

	mu       sync.Mutex
	provider llm.Provider

	limiter  *rate.Limiter
	archive  *archive.ChartArchive
	recorder Recorder
	logger   *zap.Logger
}

// New creates an Analyzer for cfg. The provider is built on first use, so a
// missing API key only surfaces when an analysis is requested.
func New(cfg config.LLMConfig, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Analyzer{
		cfg:         cfg,
		newProvider: factory.New,
		recorder:    nopRecorder{},
		logger:      logger,
	}
	if cfg.RateLimit > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return a
}

// NewWithProvider creates an Analyzer bound to p.
func NewWithProvider(p llm.Provider, cfg config.LLMConfig, logger *zap.Logger) *Analyzer {
	a := New(cfg, logger)
	a.provider = p
	return a
}

// SetArchive enables archiving of successful analyses.
func (a *Analyzer) SetArchive(c *archive.ChartArchive) {
	a.archive = c
}

// SetRecorder sets the metrics sink.
func (a *Analyzer) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	a.recorder = r
}

func (a *Analyzer) getProvider(ctx context.Context) (llm.Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.provider != nil {
		return a.provider, nil
	}
	p, err := a.newProvider(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.provider = p
	return p, nil
}

// AnalyzeChart sends img to the provider and decodes the structured result.
// Provider and decoding failures are reported as core.ErrAnalysisFailed.
func (a *Analyzer) AnalyzeChart(ctx context.Context, img llm.Image) (*core.AnalysisResult, error) {
	img, err := NewImage(img.Data, img.MIMEType)
	if err != nil {
		return nil, err
	}

	provider, err := a.getProvider(ctx)
	if err != nil {
		a.logger.Warn("chart analysis unavailable", zap.Error(err))
		return nil, err
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := a.analyze(ctx, provider, img)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		a.recorder.RecordAnalysis(provider.Name(), "error", elapsed)
		a.logger.Error("chart analysis failed",
			zap.String("provider", provider.Name()),
			zap.Error(err))
		return nil, core.WrapError(core.ErrAnalysisFailed, err)
	}
	a.recorder.RecordAnalysis(provider.Name(), "ok", elapsed)

	a.logger.Info("chart analysed",
		zap.String("provider", provider.Name()),
		zap.String("recommendation", result.Recommendation),
		zap.Float64("confidence", result.ConfidenceScore))

	a.store(ctx, provider.Name(), img, *result)
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context, provider llm.Provider, img llm.Image) (*core.AnalysisResult, error) {
	resp, err := provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: userPrompt, Images: []llm.Image{img}},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
		JSONMode:    true,
		Schema:      ResultSchema,
		SchemaName:  "chart_analysis",
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty response")
	}
	return decodeResult(resp.Content)
}

func (a *Analyzer) store(ctx context.Context, provider string, img llm.Image, result core.AnalysisResult) {
	if a.archive == nil {
		return
	}
	entry, err := a.archive.Save(ctx, img.Data, img.MIMEType, provider, result)
	if err != nil {
		a.recorder.RecordArchive("error")
		a.logger.Warn("failed to archive chart", zap.Error(err))
		return
	}
	a.recorder.RecordArchive("ok")
	a.logger.Debug("chart archived", zap.String("key", entry.ImageKey))
}
