package api

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type DocumentUploadResponse struct {
	Message string `json:"message"`
}

type ChatHistory struct {
	Success        bool `json:"success"`
	DocumentsCount int  `json:"documents_count"`
}

type Document struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadTime string `json:"upload_time"`
}

type UploadedDocuments struct {
	Success   bool       `json:"success"`
	Count     int        `json:"count"`
	Documents []Document `json:"documents"`
}

type DocumentPreview struct {
	Success     bool   `json:"success"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Preview     string `json:"preview"`
	Size        int64  `json:"size"`
	UploadTime  string `json:"upload_time"`
	IsTruncated bool   `json:"is_truncated"`
}

// IsText reports whether the backend could extract a text preview.
func (p DocumentPreview) IsText() bool {
	return p.ContentType == "text"
}
