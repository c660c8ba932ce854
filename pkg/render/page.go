package render

import (
	"html/template"

	"github.com/de-tools/alm-console/pkg/models/domain"
)

// Page is the state the page shell is rendered from.
type Page struct {
	Mode       domain.AcquisitionMode
	Version    string
	Statuses   []domain.UploadStatus
	Date       string
	CanAnalyze bool
}

type slotView struct {
	Slot   domain.Slot
	Label  string
	Status template.HTML
}

type pageView struct {
	Page
	DateMode bool
	Slots    []slotView
	Loading  template.HTML
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>ALM Console - LCR analysis</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
  <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.2/css/all.min.css">
  <link rel="stylesheet" href="/static/app.css">
</head>
<body data-mode="{{.Mode}}">
<nav class="navbar navbar-dark bg-dark mb-4">
  <div class="container">
    <span class="navbar-brand"><i class="fas fa-chart-line me-2"></i>LCR analysis</span>
    <div class="d-flex align-items-center gap-2">
      <small class="text-muted">v{{.Version}}</small>
      <button class="btn btn-sm btn-outline-light" id="admin-button" type="button"><i class="fas fa-user-shield me-1"></i>Admin</button>
      <button class="btn btn-sm btn-outline-light" id="logout-button" type="button"><i class="fas fa-sign-out-alt me-1"></i>Logout</button>
    </div>
  </div>
</nav>
<main class="container">
  <section class="card mb-4" id="acquisition">
    <div class="card-body">
{{- if .DateMode}}
      <h5 class="card-title"><i class="fas fa-calendar-day me-2"></i>Analysis date</h5>
      <div class="row g-3 align-items-end">
        <div class="col-md-4">
          <label class="form-label" for="analysis-date">Date (D)</label>
          <input class="form-control" type="date" id="analysis-date" value="{{.Date}}">
        </div>
        <div class="col-md-8" id="date-files"></div>
      </div>
{{- else}}
      <h5 class="card-title"><i class="fas fa-file-upload me-2"></i>Input files</h5>
      <div class="row g-3">
{{- range .Slots}}
        <div class="col-md-6">
          <div class="upload-card upload-area" id="drop-{{.Slot}}" data-drop-slot="{{.Slot}}">
            <label class="form-label" for="file-{{.Slot}}">File {{.Label}}</label>
            <input class="form-control" type="file" id="file-{{.Slot}}" data-slot="{{.Slot}}" accept=".xlsx,.xls,.csv">
            <small class="text-muted d-block mt-1"><i class="fas fa-hand-pointer me-1"></i>or drop the file here</small>
            <div class="upload-status mt-2" id="status-{{.Slot}}">{{.Status}}</div>
          </div>
        </div>
{{- end}}
      </div>
{{- end}}
      <div class="mt-3 d-flex gap-2">
        <button class="btn btn-primary" id="analyze-button" type="button"{{if not .CanAnalyze}} disabled{{end}}><i class="fas fa-play me-1"></i>Run analysis</button>
        <button class="btn btn-outline-secondary{{if not .CanAnalyze}} d-none{{end}}" id="cleanup-button" type="button"><i class="fas fa-broom me-1"></i>Clean Memory</button>
      </div>
    </div>
  </section>
  <section id="results" class="mb-4"></section>
  <div id="context-loading" class="alert alert-info d-none"><span class="spinner-border spinner-border-sm me-2"></span>Preparing the AI assistant...</div>
  <section class="card mb-4 d-none" id="chat-panel">
    <div class="card-header d-flex justify-content-between align-items-center">
      <span><i class="fas fa-robot me-2"></i>AI Assistant</span>
      <button class="btn btn-sm btn-outline-danger" id="chat-clear" type="button"><i class="fas fa-trash me-1"></i>Clear</button>
    </div>
    <div class="card-body">
      <div id="chat-messages" class="chat-messages mb-3"></div>
      <form id="chat-form" class="d-flex gap-2">
        <textarea class="form-control" id="chat-input" rows="2" placeholder="Ask a question about the analysis..."></textarea>
        <button class="btn btn-primary" type="submit"><i class="fas fa-paper-plane"></i></button>
      </form>
      <hr>
      <div class="d-flex align-items-center gap-2 mb-2 upload-area" id="doc-upload-area">
        <input class="form-control form-control-sm" type="file" id="document-input">
        <button class="btn btn-sm btn-outline-primary" id="document-upload" type="button"><i class="fas fa-upload"></i></button>
      </div>
      <div id="documents"></div>
    </div>
  </section>
  <section class="card mb-4 d-none" id="admin-panel">
    <div class="card-body">
      <div id="admin-stats" class="mb-3"></div>
      <div id="admin-logs" class="mb-3"></div>
      <div id="admin-users"></div>
    </div>
  </section>
</main>
<div class="modal fade" id="preview-modal" tabindex="-1">
  <div class="modal-dialog modal-lg"><div class="modal-content" id="document-preview"></div></div>
</div>
<div class="toast-container position-fixed top-0 end-0 p-3" id="toasts"></div>
<template id="loading-template">{{.Loading}}</template>
<script src="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/js/bootstrap.bundle.min.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<script src="/static/app.js"></script>
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// Page renders the full page shell. Upload cards show the last known status of each slot.
func (r *Renderer) Page(p Page) (string, error) {
	loading, err := r.LoadingPanel("")
	if err != nil {
		return "", err
	}

	statuses := make(map[domain.Slot]domain.UploadStatus, len(p.Statuses))
	for _, s := range p.Statuses {
		statuses[s.Slot] = s
	}

	view := pageView{
		Page:     p,
		DateMode: p.Mode == domain.ModeDate,
		Loading:  template.HTML(loading),
	}
	for _, slot := range domain.Slots {
		sv := slotView{Slot: slot, Label: slot.Label()}
		if s, ok := statuses[slot]; ok {
			html, err := r.UploadStatus(s)
			if err != nil {
				return "", err
			}
			sv.Status = template.HTML(html)
		}
		view.Slots = append(view.Slots, sv)
	}

	return execute(pageTmpl, "page", view)
}
