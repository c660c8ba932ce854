package render

import (
	"html/template"
	"slices"

	"github.com/de-tools/alm-console/pkg/models/api"
)

const adminTemplate = `
{{- define "stats" -}}
<div class="row mb-4">
  <div class="col-md-3"><div class="card text-center"><div class="card-body"><h5 class="card-title text-primary">{{.Total}}</h5><p class="card-text">Total Logs</p></div></div></div>
  <div class="col-md-3"><div class="card text-center"><div class="card-body"><h5 class="card-title text-success">{{.Users}}</h5><p class="card-text">Active Users</p></div></div></div>
  <div class="col-md-3"><div class="card text-center"><div class="card-body"><h5 class="card-title text-info">{{.Actions}}</h5><p class="card-text">Action Types</p></div></div></div>
  <div class="col-md-3"><div class="card text-center"><div class="card-body"><h5 class="card-title text-success">Online</h5><p class="card-text">System Status</p></div></div></div>
</div>
<hr>
{{- end -}}
{{- define "logs" -}}
{{- if not . -}}
<div class="alert alert-info">No activity logs found</div>
{{- else -}}
<h5>Recent Activity Logs</h5>
<div class="table-responsive">
  <table class="table table-striped table-sm">
    <thead><tr><th>Timestamp</th><th>User</th><th>Action</th><th>Details</th></tr></thead>
    <tbody>
    {{- range .}}
      <tr>
        <td><small>{{dateTime .Timestamp}}</small></td>
        <td><span class="badge bg-primary">{{userName .Username}}</span></td>
        <td><strong>{{.Action}}</strong></td>
        <td><small>{{.Details}}</small></td>
      </tr>
    {{- end}}
    </tbody>
  </table>
</div>
{{- end -}}
{{- end -}}
{{- define "users" -}}
{{- if not . -}}
<div class="alert alert-info">No users found</div>
{{- else -}}
<div class="table-responsive">
  <table class="table table-striped">
    <thead><tr><th>Username</th><th>Full Name</th><th>Role</th><th>Created</th></tr></thead>
    <tbody>
    {{- range .}}
      <tr>
        <td><code>{{.Username}}</code></td>
        <td><strong>{{.FullName}}</strong></td>
        <td><span class="badge {{if eq .Role "admin"}}bg-primary{{else}}bg-secondary{{end}}">{{.Role}}</span></td>
        <td><small>{{day .CreatedAt}}</small></td>
      </tr>
    {{- end}}
    </tbody>
  </table>
</div>
{{- end -}}
{{- end -}}
{{- define "admin-error" -}}
<div class="alert alert-danger">{{.}}</div>
{{- end -}}
`

var adminTmpl = template.Must(template.New("admin").Funcs(funcs).Parse(adminTemplate))

func (r *Renderer) LogsStats(stats api.LogsStats) (string, error) {
	return execute(adminTmpl, "stats", stats)
}

// Logs renders entries newest first; the backend returns them oldest first.
func (r *Renderer) Logs(logs []api.LogEntry) (string, error) {
	reversed := slices.Clone(logs)
	slices.Reverse(reversed)
	return execute(adminTmpl, "logs", reversed)
}

func (r *Renderer) Users(users []api.User) (string, error) {
	return execute(adminTmpl, "users", users)
}

func (r *Renderer) AdminError(message string) (string, error) {
	return execute(adminTmpl, "admin-error", message)
}
