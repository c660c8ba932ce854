package render

import (
	"html/template"
	"strings"
	"time"

	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/domain"
)

var funcs = template.FuncMap{
	"fileSize":  format.FileSize,
	"thousands": format.Thousands,
	"userName":  userName,
	"clock":     func(s string) string { return timestamp(s, "15:04:05") },
	"dateTime":  func(s string) string { return timestamp(s, "2006-01-02 15:04:05") },
	"day":       func(s string) string { return timestamp(s, "2006-01-02") },
}

const statusTemplate = `
{{- define "upload" -}}
{{- if eq .State "uploading" -}}
<div class="alert alert-info fade-in-up">
  <div class="d-flex align-items-center">
    <div class="spinner-border spinner-border-sm me-3"></div>
    <div><strong>Uploading...</strong><br><small>{{.FileName}} ({{fileSize .Size}})</small></div>
  </div>
</div>
{{- else if eq .State "success" -}}
<div class="alert alert-success fade-in-up">
  <div class="d-flex justify-content-between align-items-start">
    <div>
      <div class="d-flex align-items-center mb-1"><i class="fas fa-check-circle text-success me-2"></i><strong>{{.FileName}}</strong></div>
      <small class="text-muted">{{thousands .Rows}} rows • {{.Columns}} columns • {{fileSize .Size}}</small>
    </div>
    <span class="badge bg-success">OK</span>
  </div>
</div>
{{- else if eq .State "timeout" -}}
<div class="alert alert-warning fade-in-up">
  <div class="d-flex align-items-center">
    <i class="fas fa-clock me-2"></i>
    <div><strong>Upload timeout</strong><br><small>{{.Message}}</small></div>
  </div>
</div>
{{- else -}}
<div class="alert alert-danger fade-in-up">
  <div class="d-flex align-items-center">
    <i class="fas fa-exclamation-triangle me-2"></i>
    <div><strong>Upload error</strong><br><small>{{.Message}}</small></div>
  </div>
</div>
{{- end -}}
{{- end -}}
{{- define "file" -}}
<li class="list-group-item d-flex justify-content-between align-items-center">
  <div><span class="badge bg-secondary me-2">{{.Label}}</span><code>{{.File.Expected}}</code>{{with .File.Key}}<br><small class="text-muted">{{.}}</small>{{end}}</div>
  {{- if not .Checked}}
  <span class="badge bg-light text-dark">expected</span>
  {{- else if .File.Found}}
  <span class="badge bg-success">found{{if .File.Size}} • {{fileSize .File.Size}}{{end}}</span>
  {{- else}}
  <span class="badge bg-danger">missing</span>
  {{- end}}
</li>
{{- end -}}
{{- define "date-files" -}}
<div class="card date-files fade-in-up">
  <div class="card-body">
    <h6 class="card-title"><i class="fas fa-calendar-alt me-2"></i>Source files for {{.Date}}</h6>
    <ul class="list-group list-group-flush">
      {{template "file" .Current}}
      {{template "file" .Previous}}
    </ul>
  </div>
</div>
{{- end -}}
`

var statusTmpl = template.Must(template.New("status").Funcs(funcs).Parse(statusTemplate))

func (r *Renderer) UploadStatus(status domain.UploadStatus) (string, error) {
	return execute(statusTmpl, "upload", status)
}

type fileView struct {
	Label   string
	File    domain.RemoteFile
	Checked bool
}

func (r *Renderer) DateFiles(files domain.DateFiles) (string, error) {
	return execute(statusTmpl, "date-files", struct {
		Date     string
		Current  fileView
		Previous fileView
	}{
		Date:     files.Date.Format("2006-01-02"),
		Current:  fileView{Label: "D", File: files.Current, Checked: files.Checked},
		Previous: fileView{Label: "D-1", File: files.Previous, Checked: files.Checked},
	})
}

func userName(s string) string {
	name, _, _ := strings.Cut(s, "@")
	return name
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestamp reformats backend timestamps, which may lack a zone. Unknown
// layouts are shown as received.
func timestamp(s, layout string) string {
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.Format(layout)
		}
	}
	return s
}
