// Package client talks to the LCR analysis backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/rs/zerolog"
)

var ErrMalformedPayload = errors.New("malformed analysis payload")

// StatusError is returned for every non-2xx backend response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend responded with status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err carries a backend status error.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Export is either a PDF document or a link to a generated report.
type Export struct {
	PDF       []byte
	ReportURL string
}

type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base url is empty")
	}

	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{baseURL: u.String(), token: cfg.Token, http: httpClient}, nil
}

type credentialsKey struct{}

// WithCredentials attaches the browser Cookie header that must be forwarded to the backend.
func WithCredentials(ctx context.Context, cookie string) context.Context {
	if cookie == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialsKey{}, cookie)
}

func credentials(ctx context.Context) string {
	v, _ := ctx.Value(credentialsKey{}).(string)
	return v
}

func (c *Client) Upload(ctx context.Context, fileType, fileName string, file io.Reader) (api.UploadResponse, error) {
	var out api.UploadResponse
	resp, err := c.sendMultipart(ctx, "/api/upload", map[string]string{"file_type": fileType}, fileName, file)
	if err != nil {
		return out, err
	}
	return out, decode(ctx, resp, &out)
}

func (c *Client) Analyze(ctx context.Context) (api.AnalysisResponse, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/analyze", nil, nil)
	if err != nil {
		return api.AnalysisResponse{}, err
	}
	return decodeAnalysis(ctx, resp)
}

func (c *Client) AnalyzeByDate(ctx context.Context, date string) (api.AnalysisResponse, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/analyze-by-date", nil, api.AnalyzeByDateRequest{Date: date})
	if err != nil {
		return api.AnalysisResponse{}, err
	}
	return decodeAnalysis(ctx, resp)
}

func (c *Client) ContextStatus(ctx context.Context) (api.ContextStatus, error) {
	var out api.ContextStatus
	return out, c.call(ctx, http.MethodGet, "/api/context-status", nil, nil, &out)
}

func (c *Client) Chat(ctx context.Context, message string) (api.ChatResponse, error) {
	var out api.ChatResponse
	return out, c.call(ctx, http.MethodPost, "/api/chat", nil, api.ChatRequest{Message: message}, &out)
}

func (c *Client) UploadDocument(ctx context.Context, fileName string, file io.Reader) (api.DocumentUploadResponse, error) {
	var out api.DocumentUploadResponse
	resp, err := c.sendMultipart(ctx, "/api/upload-document", nil, fileName, file)
	if err != nil {
		return out, err
	}
	return out, decode(ctx, resp, &out)
}

func (c *Client) ChatHistory(ctx context.Context) (api.ChatHistory, error) {
	var out api.ChatHistory
	return out, c.call(ctx, http.MethodGet, "/api/chat-history", nil, nil, &out)
}

func (c *Client) UploadedDocuments(ctx context.Context) (api.UploadedDocuments, error) {
	var out api.UploadedDocuments
	return out, c.call(ctx, http.MethodGet, "/api/uploaded-documents", nil, nil, &out)
}

func (c *Client) PreviewDocument(ctx context.Context, fileName string) (api.DocumentPreview, error) {
	var out api.DocumentPreview
	return out, c.call(ctx, http.MethodGet, "/api/document-preview/"+url.PathEscape(fileName), nil, nil, &out)
}

func (c *Client) DeleteDocument(ctx context.Context, fileName string) error {
	return c.call(ctx, http.MethodDelete, "/api/delete-document/"+url.PathEscape(fileName), nil, nil, nil)
}

func (c *Client) ClearChat(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, "/api/chat-clear", nil, nil, nil)
}

func (c *Client) CleanupMemory(ctx context.Context) (api.CleanupResponse, error) {
	var out api.CleanupResponse
	return out, c.call(ctx, http.MethodPost, "/api/cleanup-memory", nil, nil, &out)
}

func (c *Client) Export(ctx context.Context) (Export, error) {
	resp, err := c.send(ctx, http.MethodPost, "/api/export-pdf", nil, nil)
	if err != nil {
		return Export{}, err
	}
	defer closeBody(ctx, resp)

	if err := checkStatus(resp); err != nil {
		return Export{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Export{}, fmt.Errorf("failed to read export response: %w", err)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/pdf") {
		return Export{PDF: body}, nil
	}

	var link api.ExportResponse
	if err := json.Unmarshal(body, &link); err != nil {
		return Export{}, fmt.Errorf("failed to decode export response: %w", err)
	}
	return Export{ReportURL: link.ReportURL}, nil
}

func (c *Client) Logs(ctx context.Context, limit int) (api.LogsResponse, error) {
	var out api.LogsResponse
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return out, c.call(ctx, http.MethodGet, "/api/logs", query, nil, &out)
}

func (c *Client) LogsStats(ctx context.Context) (api.LogsStatsResponse, error) {
	var out api.LogsStatsResponse
	return out, c.call(ctx, http.MethodGet, "/api/logs-stats", nil, nil, &out)
}

func (c *Client) Users(ctx context.Context) (api.UsersResponse, error) {
	var out api.UsersResponse
	return out, c.call(ctx, http.MethodGet, "/api/users", nil, nil, &out)
}

func (c *Client) Logout(ctx context.Context) (api.LogoutResponse, error) {
	var out api.LogoutResponse
	return out, c.call(ctx, http.MethodPost, "/api/logout", nil, nil, &out)
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, in, out any) error {
	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return decode(ctx, resp, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, query, in)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) sendMultipart(
	ctx context.Context,
	path string,
	fields map[string]string,
	fileName string,
	file io.Reader,
) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, fileName, file))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(ctx, req)
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, fileName string, file io.Reader) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	logger := zerolog.Ctx(ctx)

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if cookie := credentials(ctx); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("endpoint", req.URL.Path).Msg("backend request failed")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	logger.Debug().
		Str("endpoint", req.URL.Path).
		Int("status", resp.StatusCode).
		Msg("backend responded")
	return resp, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	s := c.baseURL + path
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

func decode(ctx context.Context, resp *http.Response, out any) error {
	defer closeBody(ctx, resp)

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resp.Request.URL.Path, err)
	}
	return nil
}

func decodeAnalysis(ctx context.Context, resp *http.Response) (api.AnalysisResponse, error) {
	defer closeBody(ctx, resp)

	if err := checkStatus(resp); err != nil {
		return api.AnalysisResponse{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return api.AnalysisResponse{}, fmt.Errorf("failed to read analysis response: %w", err)
	}
	return DecodeAnalysis(body)
}

// DecodeAnalysis validates and decodes an analysis payload.
func DecodeAnalysis(body []byte) (api.AnalysisResponse, error) {
	var out api.AnalysisResponse
	if err := validateAnalysis(body); err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return out, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var e api.ErrorResponse
		if json.Unmarshal(body, &e) == nil {
			switch {
			case e.Detail != "":
				msg = e.Detail
			case e.Message != "":
				msg = e.Message
			}
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}

func closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to close response body")
	}
}
