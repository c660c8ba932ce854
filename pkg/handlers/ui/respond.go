package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/export"
	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/orchestrator"
	"github.com/de-tools/alm-console/pkg/upload"
	"github.com/rs/zerolog"
)

var errBadRequest = errors.New("bad request")

// fragment is the common shape of UI responses.
type fragment struct {
	HTML          string                `json:"html"`
	Notifications []format.Notification `json:"notifications"`
}

type errorResponse struct {
	Error         string                `json:"error"`
	HTML          string                `json:"html,omitempty"`
	Notifications []format.Notification `json:"notifications"`
}

func notices(n ...format.Notification) []format.Notification {
	out := make([]format.Notification, 0, len(n))
	for _, v := range n {
		if v.Message != "" {
			out = append(out, v)
		}
	}
	return out
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrAnalysisInFlight),
		errors.Is(err, orchestrator.ErrNoAnalysis):
		return http.StatusConflict
	case errors.Is(err, orchestrator.ErrNotReady),
		errors.Is(err, chat.ErrNotConfirmed),
		errors.Is(err, upload.ErrNoFile),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrNoCharts):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

// writeError answers with the status mapped from err. html is mounted by the
// page when present, the notifications are shown as toasts.
func writeError(w http.ResponseWriter, r *http.Request, err error, html string, n ...format.Notification) {
	status := statusCode(err)
	event := zerolog.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = zerolog.Ctx(r.Context()).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")

	writeJSON(w, r, status, errorResponse{
		Error:         err.Error(),
		HTML:          html,
		Notifications: notices(n...),
	})
}
