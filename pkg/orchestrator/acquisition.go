package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/upload"
)

// DefaultUploadTimeout bounds the file-based analysis request.
const DefaultUploadTimeout = 600 * time.Second

type Backend interface {
	Analyze(ctx context.Context) (api.AnalysisResponse, error)
	AnalyzeByDate(ctx context.Context, date string) (api.AnalysisResponse, error)
	ContextStatus(ctx context.Context) (api.ContextStatus, error)
}

// Acquirer gets the two comparison files to the backend and runs the analysis on them.
type Acquirer interface {
	Mode() domain.AcquisitionMode
	Acquire(ctx context.Context, uploads *upload.Tracker) (api.AnalysisResponse, error)
}

// UploadAcquirer analyses the files previously uploaded for the session.
type UploadAcquirer struct {
	backend Backend
	timeout time.Duration
}

func NewUploadAcquirer(backend Backend, timeout time.Duration) *UploadAcquirer {
	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	return &UploadAcquirer{backend: backend, timeout: timeout}
}

func (a *UploadAcquirer) Mode() domain.AcquisitionMode {
	return domain.ModeUpload
}

func (a *UploadAcquirer) Acquire(ctx context.Context, _ *upload.Tracker) (api.AnalysisResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.backend.Analyze(ctx)
}

// DateAcquirer lets the backend fetch the files of the selected date from its store.
type DateAcquirer struct {
	backend Backend
}

func NewDateAcquirer(backend Backend) *DateAcquirer {
	return &DateAcquirer{backend: backend}
}

func (a *DateAcquirer) Mode() domain.AcquisitionMode {
	return domain.ModeDate
}

func (a *DateAcquirer) Acquire(ctx context.Context, uploads *upload.Tracker) (api.AnalysisResponse, error) {
	return a.backend.AnalyzeByDate(ctx, uploads.Date())
}

func NewAcquirer(mode domain.AcquisitionMode, backend Backend, uploadTimeout time.Duration) (Acquirer, error) {
	switch mode {
	case domain.ModeUpload:
		return NewUploadAcquirer(backend, uploadTimeout), nil
	case domain.ModeDate:
		return NewDateAcquirer(backend), nil
	default:
		return nil, fmt.Errorf("unsupported acquisition mode %q", mode)
	}
}
