// Package handler implements the JSON API endpoints.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/newthinker/signalhub/internal/api/middleware"
	"github.com/newthinker/signalhub/internal/api/response"
	"github.com/newthinker/signalhub/internal/auth"
	"github.com/newthinker/signalhub/internal/core"
	"github.com/newthinker/signalhub/internal/llm"
	"github.com/newthinker/signalhub/internal/service"
	"go.uber.org/zap"
)

// ChartAnalyzer analyses uploaded chart images. *analysis.Analyzer
// satisfies it.
type ChartAnalyzer interface {
	AnalyzeChart(ctx context.Context, img llm.Image) (*core.AnalysisResult, error)
}

// Handler serves the API on top of the data-access facade.
type Handler struct {
	svc      *service.Service
	analyzer ChartAnalyzer
	tokens   *auth.TokenIssuer
	logger   *zap.Logger
}

// New creates a Handler. analyzer may be nil, in which case chart analysis
// answers with CONFIG_MISSING.
func New(svc *service.Service, analyzer ChartAnalyzer, tokens *auth.TokenIssuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, analyzer: analyzer, tokens: tokens, logger: logger}
}

// Health reports liveness and the data mode.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": h.svc.Mode(),
	})
}

// sourced writes a facade result, logging degraded responses.
func sourced[T any](h *Handler, w http.ResponseWriter, r *http.Request, status int, res service.Result[T], data any) {
	if res.Degraded != nil {
		h.logger.Debug("degraded response",
			zap.String("path", r.URL.Path),
			zap.Error(res.Degraded))
	}
	response.Sourced(w, status, data, string(res.Source))
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("decoding body: %w", err))
	}
	return nil
}

func claims(r *http.Request) (*auth.Claims, error) {
	c, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return nil, core.ErrUnauthorized
	}
	return c, nil
}
