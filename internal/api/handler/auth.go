package handler

import (
	"net/http"

	"github.com/newthinker/signalhub/internal/api/response"
	"github.com/newthinker/signalhub/internal/core"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Session is returned by login, register and upgrade.
type Session struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

func (h *Handler) session(u core.User) (Session, error) {
	token, err := h.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}

// Login authenticates and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Fail(w, err)
		return
	}
	s, err := h.session(res.Value)
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, s)
}

// Register creates a free account and signs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	res, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		response.Fail(w, err)
		return
	}
	s, err := h.session(res.Value)
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusCreated, res, s)
}

// Recover starts password recovery. It answers 202 whether or not the
// address is known.
func (h *Handler) Recover(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	res, err := h.svc.RecoverPassword(r.Context(), req.Email)
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusAccepted, res, map[string]bool{"requested": true})
}

// Upgrade moves the caller to the premium plan and reissues the token.
func (h *Handler) Upgrade(w http.ResponseWriter, r *http.Request) {
	c, err := claims(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	res, err := h.svc.UpgradePlan(r.Context(), c.UserID)
	if err != nil {
		response.Fail(w, err)
		return
	}
	s, err := h.session(res.Value)
	if err != nil {
		response.Fail(w, err)
		return
	}
	sourced(h, w, r, http.StatusOK, res, s)
}
