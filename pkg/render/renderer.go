// Package render turns analysis payloads and UI state into HTML fragments.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/de-tools/alm-console/pkg/adapters"
	"github.com/de-tools/alm-console/pkg/charts"
	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
)

// Output is rendered markup plus the charts the page builds once the markup is mounted.
type Output struct {
	HTML   string                   `json:"html"`
	Charts []domain.ChartDescriptor `json:"charts"`
}

type Renderer struct {
	md *chat.Markdown
}

func New(md *chat.Markdown) *Renderer {
	if md == nil {
		md = chat.NewMarkdown()
	}
	return &Renderer{md: md}
}

type balanceView struct {
	Title   string
	Pivot   template.HTML
	Summary template.HTML
	Cards   []domain.VariationCard
	Error   string
}

type consumptionView struct {
	Title    string
	Table    template.HTML
	Analysis template.HTML
	Global   *domain.VariationCard
	Charts   []domain.ChartDescriptor
	Detailed template.HTML
	Error    string
}

type resultsView struct {
	BalanceSheet *balanceView
	Consumption  *consumptionView
	HasCharts    bool
}

const resultsTemplate = `
{{- define "card" -}}
<div class="col-md-6">
  <div class="card variation-card {{.Trend}}">
    <div class="card-body">
      <h6 class="card-title">{{.Title}}</h6>
      <div class="d-flex justify-content-between"><span class="text-muted">D-1</span><span>{{.Previous}} {{.Unit}}</span></div>
      <div class="d-flex justify-content-between"><span class="text-muted">D</span><span>{{.Current}} {{.Unit}}</span></div>
      <div class="d-flex justify-content-between fw-bold {{.ColorCSS}}"><span><i class="fas {{.IconCSS}} me-1"></i>Variation</span><span>{{.Delta}} {{.Unit}}</span></div>
    </div>
  </div>
</div>
{{- end -}}
{{- with .BalanceSheet}}
<section class="result-section balance-sheet mb-4">
  <h3 class="section-title"><i class="fas fa-balance-scale me-2"></i>{{.Title}}</h3>
  {{- if .Error}}
  <div class="alert alert-warning">{{.Error}}</div>
  {{- else}}
  <div class="table-responsive pivot-table">{{.Pivot}}</div>
  {{- if .Summary}}
  <div class="analysis-summary mt-3">{{.Summary}}</div>
  {{- end}}
  {{- if .Cards}}
  <div class="row g-3 mt-2">
    {{- range .Cards}}
    {{template "card" .}}
    {{- end}}
  </div>
  {{- end}}
  {{- end}}
</section>
{{- end}}
{{- with .Consumption}}
<section class="result-section consumption mb-4">
  <h3 class="section-title"><i class="fas fa-chart-line me-2"></i>{{.Title}}</h3>
  {{- if .Error}}
  <div class="alert alert-warning">{{.Error}}</div>
  {{- else}}
  <div class="table-responsive consumption-table">{{.Table}}</div>
  {{- if .Analysis}}
  <div class="analysis-text mt-3">{{.Analysis}}</div>
  {{- end}}
  {{- with .Global}}
  <div class="row g-3 mt-2">
    {{template "card" .}}
  </div>
  {{- end}}
  {{- if .Charts}}
  <div class="metier-charts mt-4">
    <h4 class="mb-3">Variation by business line</h4>
    {{- range .Charts}}
    <div class="chart-container mb-4">
      <h5>{{.Group}}</h5>
      <canvas id="{{.CanvasID}}" data-group="{{.Group}}"></canvas>
    </div>
    {{- end}}
  </div>
  {{- end}}
  {{- if .Detailed}}
  <div class="metier-analysis mt-3">{{.Detailed}}</div>
  {{- end}}
  {{- end}}
</section>
{{- end}}
<div class="export-actions text-center my-4">
  <button type="button" class="btn btn-primary btn-lg" data-action="export">
    <i class="fas fa-file-pdf me-2"></i>EXPORT REPORT
  </button>
  {{- if .HasCharts}}
  <a class="btn btn-outline-secondary btn-lg ms-2" href="/ui/charts.xlsx">
    <i class="fas fa-file-excel me-2"></i>CHART DATA
  </a>
  {{- end}}
</div>
`

const panelsTemplate = `
{{- define "empty" -}}
<div class="alert alert-warning"><i class="fas fa-exclamation-triangle me-2"></i>No analysis results available.</div>
{{- end -}}
{{- define "loading" -}}
<div class="text-center py-5 loading-panel">
  <div class="spinner-border text-primary mb-3" role="status"></div>
  <h5>{{.}}</h5>
  <p class="text-muted">This may take a few minutes.</p>
</div>
{{- end -}}
{{- define "error" -}}
<div class="alert alert-danger error-panel">
  <h5><i class="fas fa-exclamation-triangle me-2"></i>Analysis error</h5>
  <p class="mb-0">{{.}}</p>
</div>
{{- end -}}
`

var (
	resultsTmpl = template.Must(template.New("results").Parse(resultsTemplate))
	panelsTmpl  = template.Must(template.New("panels").Parse(panelsTemplate))
)

const GenericAnalysisError = "An error occurred during the analysis."

// Render builds the results markup. Chart descriptors are returned, not drawn.
func (r *Renderer) Render(results *api.AnalysisResults) (Output, error) {
	if results == nil || (results.BalanceSheet == nil && results.Consumption == nil) {
		html, err := execute(panelsTmpl, "empty", nil)
		return Output{HTML: html}, err
	}

	view := resultsView{}

	if bs := results.BalanceSheet; bs != nil {
		summary, err := r.narrative(bs.Summary)
		if err != nil {
			return Output{}, err
		}
		view.BalanceSheet = &balanceView{
			Title:   titleOr(bs.Title, "Balance Sheet"),
			Pivot:   template.HTML(bs.PivotTableHTML),
			Summary: summary,
			Cards:   adapters.MapBalanceSheetVariations(bs.Variations),
			Error:   bs.Error,
		}
	}

	if c := results.Consumption; c != nil {
		analysis, err := r.narrative(c.AnalysisText)
		if err != nil {
			return Output{}, err
		}
		detailed, err := r.narrative(c.MetierDetailedAnalysis)
		if err != nil {
			return Output{}, err
		}

		cv := &consumptionView{
			Title:    titleOr(c.Title, "LCR Consumption"),
			Table:    template.HTML(c.ConsumptionTableHTML),
			Analysis: analysis,
			Detailed: detailed,
			Error:    c.Error,
		}
		if c.Variations != nil {
			cv.Global = adapters.MapVariationToCard("GLOBAL", c.Variations.Global)
		}
		if len(c.SignificantGroups) > 0 && !c.MetierDetails.Empty() && c.Error == "" {
			cv.Charts = charts.PrepareAll(c.SignificantGroups, c.MetierDetails)
		}
		view.Consumption = cv
		view.HasCharts = len(cv.Charts) > 0
	}

	html, err := execute(resultsTmpl, "results", view)
	if err != nil {
		return Output{}, err
	}

	out := Output{HTML: html}
	if view.Consumption != nil {
		out.Charts = view.Consumption.Charts
	}
	return out, nil
}

func (r *Renderer) LoadingPanel(message string) (string, error) {
	if message == "" {
		message = "Generating analyses..."
	}
	return execute(panelsTmpl, "loading", message)
}

func (r *Renderer) ErrorPanel(message string) (string, error) {
	if message == "" {
		message = GenericAnalysisError
	}
	return execute(panelsTmpl, "error", message)
}

func (r *Renderer) narrative(text string) (template.HTML, error) {
	if text == "" {
		return "", nil
	}
	html, err := r.md.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render narrative: %w", err)
	}
	return template.HTML(html), nil
}

func titleOr(title, fallback string) string {
	if title == "" {
		return fallback
	}
	return title
}

func execute(t *template.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
