package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/export"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/orchestrator"
	"github.com/de-tools/alm-console/pkg/render"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/de-tools/alm-console/pkg/store/remote"
	"github.com/de-tools/alm-console/pkg/upload"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Upload(ctx context.Context, fileType, fileName string, file io.Reader) (api.UploadResponse, error) {
	args := m.Called(ctx, fileType, fileName)
	return args.Get(0).(api.UploadResponse), args.Error(1)
}

func (m *mockBackend) Analyze(ctx context.Context) (api.AnalysisResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.AnalysisResponse), args.Error(1)
}

func (m *mockBackend) AnalyzeByDate(ctx context.Context, date string) (api.AnalysisResponse, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(api.AnalysisResponse), args.Error(1)
}

func (m *mockBackend) ContextStatus(ctx context.Context) (api.ContextStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.ContextStatus), args.Error(1)
}

func (m *mockBackend) Chat(ctx context.Context, message string) (api.ChatResponse, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(api.ChatResponse), args.Error(1)
}

func (m *mockBackend) UploadDocument(ctx context.Context, fileName string, file io.Reader) (api.DocumentUploadResponse, error) {
	args := m.Called(ctx, fileName)
	return args.Get(0).(api.DocumentUploadResponse), args.Error(1)
}

func (m *mockBackend) ChatHistory(ctx context.Context) (api.ChatHistory, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.ChatHistory), args.Error(1)
}

func (m *mockBackend) UploadedDocuments(ctx context.Context) (api.UploadedDocuments, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.UploadedDocuments), args.Error(1)
}

func (m *mockBackend) PreviewDocument(ctx context.Context, fileName string) (api.DocumentPreview, error) {
	args := m.Called(ctx, fileName)
	return args.Get(0).(api.DocumentPreview), args.Error(1)
}

func (m *mockBackend) DeleteDocument(ctx context.Context, fileName string) error {
	return m.Called(ctx, fileName).Error(0)
}

func (m *mockBackend) ClearChat(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) CleanupMemory(ctx context.Context) (api.CleanupResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.CleanupResponse), args.Error(1)
}

func (m *mockBackend) Export(ctx context.Context) (client.Export, error) {
	args := m.Called(ctx)
	return args.Get(0).(client.Export), args.Error(1)
}

func (m *mockBackend) Logs(ctx context.Context, limit int) (api.LogsResponse, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(api.LogsResponse), args.Error(1)
}

func (m *mockBackend) LogsStats(ctx context.Context) (api.LogsStatsResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.LogsStatsResponse), args.Error(1)
}

func (m *mockBackend) Users(ctx context.Context) (api.UsersResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.UsersResponse), args.Error(1)
}

func (m *mockBackend) Logout(ctx context.Context) (api.LogoutResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.LogoutResponse), args.Error(1)
}

type testServer struct {
	*httptest.Server
	backend  *mockBackend
	sessions *session.Store
	http     *http.Client
}

func newTestServer(t *testing.T, mode domain.AcquisitionMode) *testServer {
	t.Helper()

	backend := new(mockBackend)
	renderer := render.New(nil)
	acquirer, err := orchestrator.NewAcquirer(mode, backend, time.Minute)
	require.NoError(t, err)

	sessions := session.NewStore(mode, time.Hour)
	config := Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Sessions:     sessions,
			Orchestrator: orchestrator.New(acquirer, backend, renderer, orchestrator.Delays{}),
			Uploader:     upload.NewUploader(backend, time.Minute),
			Chat:         chat.NewController(backend),
			Renderer:     renderer,
			Backend:      backend,
			Locator:      remote.NewLocator(nil, "", ""),
			Version:      "test",
			Logger:       zerolog.New(zerolog.NewTestWriter(t)),
		},
	}

	srv := httptest.NewServer(ConfigureRouter(config))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{
		Server:   srv,
		backend:  backend,
		sessions: sessions,
		http:     &http.Client{Jar: jar},
	}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.http.Do(req)
	require.NoError(t, err, "Failed to send request")
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")
	return resp, data
}

func (s *testServer) upload(t *testing.T, path, name string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte("col1,col2\n1,2\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return s.do(t, http.MethodPost, path, mw.FormDataContentType(), &buf)
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}

type uiResponse struct {
	HTML          string `json:"html"`
	Documents     string `json:"documents"`
	Error         string `json:"error"`
	CanAnalyze    bool   `json:"can_analyze"`
	State         string `json:"state"`
	Phase         string `json:"phase"`
	Visible       bool   `json:"visible"`
	Greeted       bool   `json:"greeted"`
	Redirect      string `json:"redirect"`
	ReportURL     string `json:"report_url"`
	Notifications []struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"notifications"`
	Charts []domain.ChartDescriptor `json:"charts"`
}

func parse(t *testing.T, data []byte) uiResponse {
	t.Helper()
	v, err := unmarshalResponse[uiResponse]()(data)
	require.NoError(t, err, "Failed to parse response: %s", data)
	return v.(uiResponse)
}

func analysisPayload() api.AnalysisResponse {
	return api.AnalysisResponse{
		Success:      true,
		ContextReady: true,
		Results: &api.AnalysisResults{
			BalanceSheet: &api.BalanceSheetSection{Title: "Balance Sheet", PivotTableHTML: "<table><tr><td>1</td></tr></table>"},
			Consumption: &api.ConsumptionSection{
				Title:             "Consumption",
				SignificantGroups: []string{"G"},
				MetierDetails: &api.MetierDetails{
					J:       []api.MetierRow{{Group: "G", Metier: "A", ImpactBn: 3}},
					JMinus1: []api.MetierRow{{Group: "G", Metier: "A", ImpactBn: 1}, {Group: "G", Metier: "B", ImpactBn: 2}},
				},
			},
		},
	}
}

func TestWebAPI_Endpoints(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "Health",
			path:           "/healthz",
			expectedStatus: http.StatusOK,
			expected: map[string]string{
				"status":  "ok",
				"service": "alm-console",
				"version": "test",
				"mode":    "upload",
			},
			parseResponse: unmarshalResponse[map[string]string](),
		},
		{
			name:           "StaticScript",
			path:           "/static/app.js",
			expectedStatus: http.StatusOK,
			expected:       true,
			parseResponse: func(data []byte) (interface{}, error) {
				return strings.Contains(string(data), "buildCharts"), nil
			},
		},
		{
			name:           "StaticScriptWiresDropZones",
			path:           "/static/app.js",
			expectedStatus: http.StatusOK,
			expected:       true,
			parseResponse: func(data []byte) (interface{}, error) {
				js := string(data)
				return strings.Contains(js, `addEventListener("drop"`) &&
					strings.Contains(js, "[data-drop-slot]") &&
					strings.Contains(js, `$("doc-upload-area")`), nil
			},
		},
		{
			name:           "ChartsWithoutAnalysis",
			path:           "/ui/charts.xlsx",
			expectedStatus: http.StatusConflict,
			expected:       orchestrator.ErrNoAnalysis.Error(),
			parseResponse: func(data []byte) (interface{}, error) {
				var resp uiResponse
				err := json.Unmarshal(data, &resp)
				return resp.Error, err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := srv.do(t, http.MethodGet, tc.path, "", nil)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestWebAPI_IndexStartsSession(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)

	resp, body := srv.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), `id="file-j1"`)
	assert.Equal(t, 1, srv.sessions.Len())

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	srv.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, 1, srv.sessions.Len(), "second request reuses the session")
}

func TestWebAPI_AnalysisFlow(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)
	b := srv.backend

	b.On("Upload", mock.Anything, "j", "d.csv").Return(api.UploadResponse{Success: true, Rows: 10, Columns: 2}, nil)
	b.On("Upload", mock.Anything, "jMinus1", "d1.csv").Return(api.UploadResponse{Success: true, Rows: 9, Columns: 2}, nil)
	b.On("Analyze", mock.Anything).Return(analysisPayload(), nil)
	b.On("ContextStatus", mock.Anything).Return(api.ContextStatus{ContextReady: true}, nil)
	b.On("ChatHistory", mock.Anything).Return(api.ChatHistory{Success: true, DocumentsCount: 1}, nil)
	b.On("UploadedDocuments", mock.Anything).Return(api.UploadedDocuments{Success: true}, nil)
	b.On("Chat", mock.Anything, "What changed?").Return(api.ChatResponse{Response: "**A** moved"}, nil)

	resp, body := srv.do(t, http.MethodPost, "/ui/analyze", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, orchestrator.ErrNotReady.Error(), parse(t, body).Error)

	resp, body = srv.upload(t, "/ui/upload/j", "d.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := parse(t, body)
	assert.False(t, first.CanAnalyze)
	assert.Equal(t, "success", first.State)
	assert.Contains(t, first.HTML, "d.csv")

	resp, body = srv.upload(t, "/ui/upload/j1", "d1.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := parse(t, body)
	assert.True(t, second.CanAnalyze)
	require.Len(t, second.Notifications, 1)
	assert.Equal(t, upload.BothReadyMessage, second.Notifications[0].Message)

	resp, body = srv.do(t, http.MethodPost, "/ui/analyze", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	analysis := parse(t, body)
	assert.Equal(t, "success", analysis.Phase)
	assert.Contains(t, analysis.HTML, `id="metier-chart-0"`)
	require.Len(t, analysis.Charts, 1)
	assert.Equal(t, []string{"TOTAL GROUP", "A", "B"}, analysis.Charts[0].Series.Labels)

	resp, body = srv.do(t, http.MethodPost, "/ui/analyze/assistant", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assistant := parse(t, body)
	assert.True(t, assistant.Visible)
	assert.True(t, assistant.Greeted)
	assert.NotEmpty(t, assistant.HTML)

	resp, body = srv.do(t, http.MethodPost, "/ui/chat", "application/json", strings.NewReader(`{"message":"What changed?"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, parse(t, body).HTML, "<strong>A</strong> moved")

	resp, body = srv.do(t, http.MethodGet, "/ui/charts.xlsx", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)

	b.AssertExpectations(t)
}

func TestWebAPI_UploadFailure(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)
	srv.backend.On("Upload", mock.Anything, "j", "d.csv").
		Return(api.UploadResponse{}, &client.StatusError{StatusCode: http.StatusUnprocessableEntity, Message: "missing columns"})

	resp, body := srv.upload(t, "/ui/upload/j", "d.csv")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	parsed := parse(t, body)
	assert.Equal(t, "error", parsed.State)
	assert.False(t, parsed.CanAnalyze)
	assert.Contains(t, parsed.HTML, "missing columns")
}

func TestWebAPI_UnknownSlot(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)

	resp, _ := srv.upload(t, "/ui/upload/j2", "d.csv")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebAPI_DateFiles(t *testing.T) {
	srv := newTestServer(t, domain.ModeDate)

	resp, body := srv.do(t, http.MethodGet, "/ui/date-files?date=2024-03-15", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	parsed := parse(t, body)
	assert.True(t, parsed.CanAnalyze)
	assert.Contains(t, parsed.HTML, "D_PA_20240315xxxx.csv")
	assert.Contains(t, parsed.HTML, "D_PA_20240314xxxx.csv")

	resp, _ = srv.do(t, http.MethodGet, "/ui/date-files?date=15/03/2024", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebAPI_AnalysisFailureRendersPanel(t *testing.T) {
	srv := newTestServer(t, domain.ModeDate)
	srv.backend.On("AnalyzeByDate", mock.Anything, "2024-03-15").
		Return(api.AnalysisResponse{Success: false, Message: "No file for this date"}, nil)

	srv.do(t, http.MethodGet, "/ui/date-files?date=2024-03-15", "", nil)

	resp, body := srv.do(t, http.MethodPost, "/ui/analyze", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	parsed := parse(t, body)
	assert.Equal(t, "error", parsed.Phase)
	assert.Contains(t, parsed.HTML, "No file for this date")
	require.Len(t, parsed.Notifications, 1)
	assert.Equal(t, orchestrator.MsgAnalysisFailed, parsed.Notifications[0].Message)
}

func TestWebAPI_FailedRerunDropsWorkbook(t *testing.T) {
	srv := newTestServer(t, domain.ModeDate)
	srv.backend.On("AnalyzeByDate", mock.Anything, "2024-03-15").Return(analysisPayload(), nil).Once()
	srv.backend.On("AnalyzeByDate", mock.Anything, "2024-03-15").
		Return(api.AnalysisResponse{Success: false, Message: "backend restarted"}, nil).Once()

	srv.do(t, http.MethodGet, "/ui/date-files?date=2024-03-15", "", nil)

	resp, _ := srv.do(t, http.MethodPost, "/ui/analyze", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodGet, "/ui/charts.xlsx", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/ui/analyze", "", nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp, _ = srv.do(t, http.MethodGet, "/ui/charts.xlsx", "", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestWebAPI_ChatClear(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)
	srv.backend.On("ClearChat", mock.Anything).Return(nil)

	resp, _ := srv.do(t, http.MethodDelete, "/ui/chat", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	srv.backend.AssertNotCalled(t, "ClearChat", mock.Anything)

	resp, body := srv.do(t, http.MethodDelete, "/ui/chat?confirm=true", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	parsed := parse(t, body)
	require.Len(t, parsed.Notifications, 1)
	assert.Equal(t, "Chat history cleared", parsed.Notifications[0].Message)
}

func TestWebAPI_Export(t *testing.T) {
	t.Run("PDF", func(t *testing.T) {
		srv := newTestServer(t, domain.ModeUpload)
		srv.backend.On("Export", mock.Anything).Return(client.Export{PDF: []byte("%PDF-1.4")}, nil)

		resp, body := srv.do(t, http.MethodPost, "/ui/export", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", string(body))
	})

	t.Run("ReportURL", func(t *testing.T) {
		srv := newTestServer(t, domain.ModeUpload)
		srv.backend.On("Export", mock.Anything).Return(client.Export{ReportURL: "/reports/1.html"}, nil)

		resp, body := srv.do(t, http.MethodPost, "/ui/export", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "/reports/1.html", parse(t, body).ReportURL)
	})

	t.Run("Failure", func(t *testing.T) {
		srv := newTestServer(t, domain.ModeUpload)
		srv.backend.On("Export", mock.Anything).Return(client.Export{}, &client.StatusError{StatusCode: 500, Message: "boom"})

		resp, body := srv.do(t, http.MethodPost, "/ui/export", "", nil)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		parsed := parse(t, body)
		require.Len(t, parsed.Notifications, 1)
		assert.Equal(t, "Export failed", parsed.Notifications[0].Message)
	})
}

func TestWebAPI_Admin(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)
	srv.backend.On("Logs", mock.Anything, 50).Return(api.LogsResponse{Success: true, Logs: []api.LogEntry{
		{Timestamp: "2024-03-15T10:00:00", Username: "jane@bank.example", Action: "login"},
	}}, nil)
	srv.backend.On("Users", mock.Anything).Return(api.UsersResponse{}, &client.StatusError{StatusCode: 403, Message: "forbidden"})

	resp, body := srv.do(t, http.MethodGet, "/ui/admin/logs", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, parse(t, body).HTML, "jane")

	resp, body = srv.do(t, http.MethodGet, "/ui/admin/users", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.NotEmpty(t, parse(t, body).HTML)
}

func TestWebAPI_Logout(t *testing.T) {
	srv := newTestServer(t, domain.ModeUpload)
	srv.backend.On("Logout", mock.Anything).Return(api.LogoutResponse{Success: true, Redirect: "/login"}, nil)

	srv.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, 1, srv.sessions.Len())

	resp, body := srv.do(t, http.MethodPost, "/ui/logout", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", parse(t, body).Redirect)
	assert.Equal(t, 0, srv.sessions.Len())
}

func TestWebAPI_StartStopsWithContext(t *testing.T) {
	api := NewWebAPI(Config{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
		Dependencies:    Dependencies{Logger: zerolog.New(zerolog.NewTestWriter(t))},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestWebAPI_StartReportsListenFailure(t *testing.T) {
	api := NewWebAPI(Config{
		Addr:         "127.0.0.1:-1",
		Dependencies: Dependencies{Logger: zerolog.New(zerolog.NewTestWriter(t))},
	})

	err := api.Start(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, http.ErrServerClosed)
}
