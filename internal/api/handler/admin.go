package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newthinker/signalhub/internal/api/response"
	"github.com/newthinker/signalhub/internal/core"
)

// Users lists the admin projection of every account.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AdminUsers(r.Context())
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, res.Value)
}

// UpdateStatus sets an account's admin status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status core.UserStatus `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	res, err := h.svc.UpdateUserStatus(r.Context(), id, req.Status)
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, map[string]any{"id": id, "status": req.Status})
}

// DeleteUser removes an account from the admin panel.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.DeleteUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, map[string]bool{"deleted": true})
}
