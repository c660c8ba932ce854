package api

type UploadResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	Rows           int      `json:"rows"`
	Columns        int      `json:"columns"`
	FileSize       int64    `json:"file_size,omitempty"`
	MissingColumns []string `json:"missing_columns,omitempty"`
}

type ExportResponse struct {
	ReportURL string `json:"report_url"`
}
