package render

import (
	"html/template"

	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
)

const conversationTemplate = `
{{- define "messages" -}}
{{- range .Messages}}
{{- if eq .Type "user"}}
<div class="chat-message user"><strong>You:</strong> {{.Text}}</div>
{{- else}}
<div class="chat-message assistant"><strong>AI:</strong> <div class="ai-response">{{.HTML}}</div></div>
{{- end}}
{{- end}}
{{- if .Typing}}
<div id="typing-indicator" class="chat-message assistant">
  <div class="d-flex align-items-center"><div class="spinner-border spinner-border-sm me-2"></div><em>AI is thinking...</em></div>
</div>
{{- end}}
{{- end -}}
{{- define "documents" -}}
{{- if . -}}
<h6 class="mb-2">Documents ({{len .}})</h6>
{{- range .}}
<div class="doc-item d-flex justify-content-between align-items-start">
  <div class="flex-grow-1">
    <i class="fas fa-file-alt me-2"></i><strong>{{.Filename}}</strong>
    <br><small class="text-muted">{{fileSize .Size}} - {{clock .UploadTime}}</small>
  </div>
  <div class="btn-group btn-group-sm ms-2">
    <button class="btn btn-outline-primary" data-action="preview-document" data-name="{{.Filename}}" title="Preview"><i class="fas fa-eye"></i></button>
    <button class="btn btn-outline-danger" data-action="delete-document" data-name="{{.Filename}}" title="Delete"><i class="fas fa-trash"></i></button>
  </div>
</div>
{{- end}}
{{- end -}}
{{- end -}}
{{- define "preview" -}}
<div class="modal-header">
  <h5 class="modal-title"><i class="fas fa-file-alt me-2"></i>{{.Filename}}</h5>
  <button type="button" class="btn-close" data-bs-dismiss="modal"></button>
</div>
<div class="modal-body">
  <div class="document-preview">
  {{- if .IsText}}
    <pre class="p-3 bg-light rounded">{{.Preview}}</pre>
  {{- else}}
    <div class="alert alert-info"><i class="fas fa-info-circle me-2"></i>Preview not available for this file type</div>
  {{- end}}
  </div>
  <div class="mt-3">
    <small class="text-muted"><strong>Size:</strong> {{fileSize .Size}} • <strong>Uploaded:</strong> {{dateTime .UploadTime}}{{if .IsTruncated}} • <span class="text-warning">Preview truncated</span>{{end}}</small>
  </div>
</div>
<div class="modal-footer">
  <button type="button" class="btn btn-danger" data-action="delete-document" data-name="{{.Filename}}"><i class="fas fa-trash me-2"></i>Delete</button>
  <button type="button" class="btn btn-secondary" data-bs-dismiss="modal">Close</button>
</div>
{{- end -}}
`

var conversationTmpl = template.Must(template.New("conversation").Funcs(funcs).Parse(conversationTemplate))

type messageView struct {
	Type domain.MessageType
	Text string
	HTML template.HTML
}

// Messages renders the chat log. User text is escaped, assistant replies go through Markdown.
func (r *Renderer) Messages(messages []domain.ChatMessage, typing bool) (string, error) {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		v := messageView{Type: m.Type, Text: m.Message}
		if m.Type == domain.MessageAssistant {
			html, err := r.md.Render(m.Message)
			if err != nil {
				return "", err
			}
			v.HTML = template.HTML(html)
		}
		views = append(views, v)
	}

	return execute(conversationTmpl, "messages", struct {
		Messages []messageView
		Typing   bool
	}{Messages: views, Typing: typing})
}

func (r *Renderer) Documents(docs []api.Document) (string, error) {
	return execute(conversationTmpl, "documents", docs)
}

func (r *Renderer) DocumentPreview(preview api.DocumentPreview) (string, error) {
	return execute(conversationTmpl, "preview", preview)
}
