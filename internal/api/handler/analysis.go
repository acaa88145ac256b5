package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/newthinker/signalhub/internal/analysis"
	"github.com/newthinker/signalhub/internal/api/response"
	"github.com/newthinker/signalhub/internal/core"
)

// Analyze runs chart analysis on the multipart "image" upload.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		response.Fail(w, core.WrapError(core.ErrConfigMissing, errors.New("chart analysis is not configured")))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, analysis.MaxImageSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidInput, fmt.Errorf("reading upload: %w", err)))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Fail(w, core.WrapError(core.ErrInvalidInput, err))
		return
	}
	img, err := analysis.NewImage(data, header.Header.Get("Content-Type"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	result, err := h.analyzer.AnalyzeChart(r.Context(), img)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}
