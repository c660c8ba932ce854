// Package ui serves the page shell and the HTML fragments it mounts.
package ui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/de-tools/alm-console/pkg/charts"
	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/export"
	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/orchestrator"
	"github.com/de-tools/alm-console/pkg/render"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/de-tools/alm-console/pkg/upload"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	maxUploadMemory = 32 << 20
	serviceName     = "alm-console"
)

// Backend is the part of the analysis backend the handlers call directly.
type Backend interface {
	CleanupMemory(ctx context.Context) (api.CleanupResponse, error)
	Export(ctx context.Context) (client.Export, error)
	Logs(ctx context.Context, limit int) (api.LogsResponse, error)
	LogsStats(ctx context.Context) (api.LogsStatsResponse, error)
	Users(ctx context.Context) (api.UsersResponse, error)
	Logout(ctx context.Context) (api.LogoutResponse, error)
}

type FileLocator interface {
	FilesForDate(ctx context.Context, date time.Time) (domain.DateFiles, error)
}

type Dependencies struct {
	Sessions     *session.Store
	Orchestrator *orchestrator.Orchestrator
	Uploader     *upload.Uploader
	Chat         *chat.Controller
	Renderer     *render.Renderer
	Backend      Backend
	Locator      FileLocator
	Version      string
}

type Handler struct {
	sessions     *session.Store
	orchestrator *orchestrator.Orchestrator
	uploader     *upload.Uploader
	chat         *chat.Controller
	renderer     *render.Renderer
	backend      Backend
	locator      FileLocator
	version      string
}

func NewHandler(deps Dependencies) *Handler {
	renderer := deps.Renderer
	if renderer == nil {
		renderer = render.New(nil)
	}
	return &Handler{
		sessions:     deps.Sessions,
		orchestrator: deps.Orchestrator,
		uploader:     deps.Uploader,
		chat:         deps.Chat,
		renderer:     renderer,
		backend:      deps.Backend,
		locator:      deps.Locator,
		version:      deps.Version,
	}
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	state, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "session is missing", http.StatusInternalServerError)
	}
	return state, ok
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	page, err := h.renderer.Page(render.Page{
		Mode:       h.orchestrator.Mode(),
		Version:    h.version,
		Statuses:   state.Uploads.Statuses(),
		Date:       state.Uploads.Date(),
		CanAnalyze: state.Uploads.CanAnalyze(),
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

type health struct {
	Status  string                 `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Mode    domain.AcquisitionMode `json:"mode"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, health{
		Status:  "ok",
		Service: serviceName,
		Version: h.version,
		Mode:    h.orchestrator.Mode(),
	})
}

type uploadResponse struct {
	fragment
	Slot       domain.Slot        `json:"slot"`
	State      domain.UploadState `json:"state"`
	CanAnalyze bool               `json:"can_analyze"`
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	slot, ok := domain.ParseSlot(chi.URLParam(r, "slot"))
	if !ok {
		writeError(w, r, fmt.Errorf("%w: unknown slot %q", errBadRequest, chi.URLParam(r, "slot")), "")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err), "", format.Error("Invalid upload request"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var file upload.File
	if f, header, err := r.FormFile("file"); err == nil {
		defer f.Close()
		file = upload.File{Name: header.Filename, Size: header.Size, Reader: f}
	}

	res, err := h.uploader.Upload(r.Context(), state.Uploads, slot, file)

	body := uploadResponse{
		fragment:   fragment{Notifications: notices(res.Notifications...)},
		Slot:       slot,
		State:      res.Status.State,
		CanAnalyze: res.CanAnalyze,
	}
	if res.Status.State != "" {
		html, renderErr := h.renderer.UploadStatus(res.Status)
		if renderErr != nil {
			zerolog.Ctx(r.Context()).Error().Err(renderErr).Msg("failed to render upload status")
		}
		body.HTML = html
	}

	if err != nil {
		if len(body.Notifications) == 0 {
			body.Notifications = notices(format.Error(err.Error()))
		}
		writeJSON(w, r, statusCode(err), body)
		return
	}
	writeJSON(w, r, http.StatusOK, body)
}

type dateFilesResponse struct {
	fragment
	Date       string            `json:"date"`
	CanAnalyze bool              `json:"can_analyze"`
	Files      *domain.DateFiles `json:"files,omitempty"`
}

// DateFiles selects the analysis date and previews its source files.
func (h *Handler) DateFiles(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if err := state.Uploads.SetDate(date); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err), "", format.Error("Please select a valid date"))
		return
	}

	body := dateFilesResponse{Date: date, CanAnalyze: state.Uploads.CanAnalyze()}
	body.Notifications = notices()
	if date == "" {
		writeJSON(w, r, http.StatusOK, body)
		return
	}

	day, _ := time.Parse(upload.DateLayout, date)
	files, err := h.locator.FilesForDate(r.Context(), day)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("date", date).Msg("failed to locate source files")
		body.Notifications = notices(format.Warning("Could not check the source files for this date"))
	}

	html, err := h.renderer.DateFiles(files)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	body.HTML = html
	body.Files = &files
	writeJSON(w, r, http.StatusOK, body)
}

// Analyze runs the analysis of the session. A failed analysis still carries
// the error panel to mount.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	if date := r.FormValue("date"); date != "" {
		if err := state.Uploads.SetDate(date); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err), "", format.Error("Please select a valid date"))
			return
		}
	}

	res, err := h.orchestrator.Analyze(r.Context(), state)
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, res)
	case res.Phase == domain.PhaseError:
		writeJSON(w, r, statusCode(err), res)
	default:
		writeError(w, r, err, "", format.Warning(notReadyMessage(err, h.orchestrator.Mode())))
	}
}

func notReadyMessage(err error, mode domain.AcquisitionMode) string {
	if statusCode(err) == http.StatusConflict {
		return "An analysis is already running"
	}
	if mode == domain.ModeDate {
		return "Please select a date first"
	}
	return "Please upload both files first"
}

type assistantResponse struct {
	orchestrator.Assistant
	HTML      string `json:"html"`
	Documents string `json:"documents"`
	Visible   bool   `json:"visible"`
}

// Assistant waits for the assistant context of the last analysis and reveals the chat.
func (h *Handler) Assistant(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	res, err := h.orchestrator.AwaitAssistant(r.Context(), state)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	if err := h.chat.Restore(r.Context(), state.Chat); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to load uploaded documents")
	}

	body := assistantResponse{Assistant: res, Visible: state.Chat.Visible()}
	if body.Notifications == nil {
		body.Notifications = notices()
	}
	if body.HTML, err = h.renderer.Messages(state.Chat.Messages(), state.Chat.Typing()); err != nil {
		writeError(w, r, err, "")
		return
	}
	if body.Documents, err = h.renderer.Documents(state.Chat.Documents()); err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, r, http.StatusOK, body)
}

// ChartsWorkbook exports the charts of the last successful analysis.
func (h *Handler) ChartsWorkbook(w http.ResponseWriter, r *http.Request) {
	state, ok := h.state(w, r)
	if !ok {
		return
	}

	results, ok := state.Results()
	if !ok {
		writeError(w, r, orchestrator.ErrNoAnalysis, "", format.Warning("Run an analysis first"))
		return
	}

	var descriptors []domain.ChartDescriptor
	if c := results.Consumption; c != nil {
		descriptors = charts.PrepareAll(c.SignificantGroups, c.MetierDetails)
	}

	wb, err := export.Workbook(descriptors)
	if err != nil {
		writeError(w, r, err, "", format.Warning("No charts to export"))
		return
	}
	defer func() { _ = wb.Close() }()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="lcr-charts.xlsx"`)
	if err := wb.Write(w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write workbook")
	}
}

type exportResponse struct {
	ReportURL     string                `json:"report_url"`
	Notifications []format.Notification `json:"notifications"`
}

// Export passes the backend report through, either as a PDF download or as a link.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	report, err := h.backend.Export(r.Context())
	if err != nil {
		writeError(w, r, err, "", format.Error("Export failed"))
		return
	}

	if report.PDF != nil {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="lcr-report.pdf"`)
		if _, err := w.Write(report.PDF); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write report")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, exportResponse{
		ReportURL:     report.ReportURL,
		Notifications: notices(format.Success("Report generated")),
	})
}

func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.backend.CleanupMemory(r.Context())
	if err != nil {
		writeError(w, r, err, "", format.Error("Error cleaning memory"))
		return
	}

	msg := resp.Message
	if msg == "" {
		msg = "Memory cleaned"
	}
	notice := format.Success(msg)
	if !resp.Success {
		notice = format.Warning(msg)
	}
	writeJSON(w, r, http.StatusOK, fragment{Notifications: notices(notice)})
}
