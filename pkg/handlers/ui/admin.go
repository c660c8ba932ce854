package ui

import (
	"net/http"
	"strconv"

	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/session"
)

const defaultLogsLimit = 50

func (h *Handler) adminFailure(w http.ResponseWriter, r *http.Request, err error, what string) {
	html, _ := h.renderer.AdminError("Could not load " + what)
	writeError(w, r, err, html)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.backend.LogsStats(r.Context())
	if err != nil {
		h.adminFailure(w, r, err, "statistics")
		return
	}

	html, err := h.renderer.LogsStats(resp.Stats)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, fragment{HTML: html, Notifications: notices()})
}

func (h *Handler) AdminLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	resp, err := h.backend.Logs(r.Context(), limit)
	if err != nil {
		h.adminFailure(w, r, err, "activity logs")
		return
	}

	html, err := h.renderer.Logs(resp.Logs)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, fragment{HTML: html, Notifications: notices()})
}

func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.backend.Users(r.Context())
	if err != nil {
		h.adminFailure(w, r, err, "users")
		return
	}

	html, err := h.renderer.Users(resp.Users)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, fragment{HTML: html, Notifications: notices()})
}

type logoutResponse struct {
	Redirect      string                `json:"redirect"`
	Notifications []format.Notification `json:"notifications"`
}

const defaultRedirect = "/login"

// Logout ends the backend session and forgets the local one.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	resp, err := h.backend.Logout(r.Context())
	if err != nil {
		writeError(w, r, err, "", format.Error("Logout failed"))
		return
	}

	h.sessions.Drop(state.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	redirect := resp.Redirect
	if redirect == "" {
		redirect = defaultRedirect
	}
	writeJSON(w, r, http.StatusOK, logoutResponse{Redirect: redirect, Notifications: notices()})
}
