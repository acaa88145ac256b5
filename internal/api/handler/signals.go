package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/newthinker/signalhub/internal/api/response"
)

// Signals returns one page of signals, newest first.
func (h *Handler) Signals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	limit := intParam(q.Get("limit"), 0)

	res, err := h.svc.Signals(r.Context(), page, limit)
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, res.Value)
}

// Providers lists signal providers.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Providers(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, res.Value)
}

// Follow toggles the caller's follow on a provider.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	res, err := h.svc.ToggleFollow(r.Context(), c.UserID, chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, map[string]bool{"following": res.Value})
}

// intParam parses s, returning def when it is absent or malformed.
func intParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
