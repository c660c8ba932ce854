package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/de-tools/alm-console/pkg/adapters"
	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/rs/zerolog"
)

const DefaultTimeout = 30 * time.Minute

const BothReadyMessage = "Both files are loaded! You can start the analysis."

var ErrNoFile = errors.New("no file provided")

type Backend interface {
	Upload(ctx context.Context, fileType, fileName string, file io.Reader) (api.UploadResponse, error)
}

type File struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Result is the outcome of one slot upload.
type Result struct {
	Status        domain.UploadStatus
	CanAnalyze    bool
	Notifications []format.Notification
}

type Uploader struct {
	backend Backend
	timeout time.Duration
}

func NewUploader(backend Backend, timeout time.Duration) *Uploader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Uploader{backend: backend, timeout: timeout}
}

// Upload sends file for slot and records the outcome on tracker. The returned
// error is nil only when the slot became ready.
func (u *Uploader) Upload(ctx context.Context, tracker *Tracker, slot domain.Slot, file File) (Result, error) {
	logger := zerolog.Ctx(ctx)

	if file.Reader == nil || file.Name == "" {
		return Result{CanAnalyze: tracker.CanAnalyze()}, ErrNoFile
	}

	tracker.set(domain.UploadStatus{Slot: slot, State: domain.UploadPending, FileName: file.Name, Size: file.Size})

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	resp, err := u.backend.Upload(ctx, slot.FileType(), file.Name, file.Reader)
	if err != nil {
		status := domain.UploadStatus{
			Slot:     slot,
			State:    domain.UploadFailed,
			FileName: file.Name,
			Size:     file.Size,
			Message:  failureMessage(err),
		}
		level := format.LevelError
		if errors.Is(err, context.DeadlineExceeded) {
			status.State = domain.UploadTimeout
			status.Message = "The file is too large or the connection too slow"
			level = format.LevelWarning
		}
		tracker.set(status)

		logger.Warn().Err(err).Str("slot", string(slot)).Str("file", file.Name).Msg("upload failed")
		return Result{
			Status:        status,
			CanAnalyze:    tracker.CanAnalyze(),
			Notifications: []format.Notification{format.NewNotification(level, fmt.Sprintf("Upload %s failed: %s", slot.Label(), status.Message))},
		}, fmt.Errorf("upload %s: %w", slot, err)
	}

	status := adapters.MapUploadResponseToStatus(slot, file.Name, resp)
	if status.Size == 0 {
		status.Size = file.Size
	}
	bothReady := tracker.set(status)

	logger.Info().
		Str("slot", string(slot)).
		Str("file", status.FileName).
		Int("rows", status.Rows).
		Int("columns", status.Columns).
		Msg("upload succeeded")

	result := Result{Status: status, CanAnalyze: tracker.CanAnalyze()}
	if bothReady && tracker.Mode() == domain.ModeUpload {
		result.Notifications = append(result.Notifications, format.Success(BothReadyMessage))
	}
	return result, nil
}

func failureMessage(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
