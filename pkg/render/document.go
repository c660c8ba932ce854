package render

import (
	"html/template"

	"github.com/de-tools/alm-console/pkg/models/domain"
)

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
  <link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.2/css/all.min.css">
  <style>.chart-container { position: relative; height: 320px; }</style>
</head>
<body>
<main class="container my-4">
  <h1 class="mb-4">{{.Title}}</h1>
  {{.Body}}
</main>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<script>
(function () {
  var charts = {{.Charts}};
  document.addEventListener("DOMContentLoaded", function () {
    (charts || []).forEach(function (d) {
      var canvas = document.getElementById(d.canvas_id);
      if (!canvas || !window.Chart) { return; }
      new Chart(canvas, {
        type: "bar",
        data: d.series,
        options: { responsive: true, maintainAspectRatio: false, plugins: { legend: { display: false }, title: { display: true, text: d.group } } }
      });
    });
  });
})();
</script>
</body>
</html>
`

var documentTmpl = template.Must(template.New("document").Parse(documentTemplate))

// Document wraps rendered results into a standalone page that builds its charts on load.
func (r *Renderer) Document(title string, out Output) (string, error) {
	charts := out.Charts
	if charts == nil {
		charts = []domain.ChartDescriptor{}
	}
	return execute(documentTmpl, "document", struct {
		Title  string
		Body   template.HTML
		Charts []domain.ChartDescriptor
	}{
		Title:  title,
		Body:   template.HTML(out.HTML),
		Charts: charts,
	})
}
