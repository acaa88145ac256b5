package handler

import (
	"net/http"

	"github.com/newthinker/signalhub/internal/api/response"
)

// Backtest runs a simulated backtest.
func (h *Handler) Backtest(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RunBacktest(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, res.Value)
}
