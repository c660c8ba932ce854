// Package upload tracks the two comparison files and forwards them to the backend.
package upload

import (
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/alm-console/pkg/models/domain"
)

const DateLayout = "2006-01-02"

// Tracker holds the readiness of each slot and, in date mode, the selected date.
type Tracker struct {
	mu    sync.Mutex
	mode  domain.AcquisitionMode
	slots map[domain.Slot]domain.UploadStatus
	date  string
}

func NewTracker(mode domain.AcquisitionMode) *Tracker {
	return &Tracker{
		mode:  mode,
		slots: make(map[domain.Slot]domain.UploadStatus, len(domain.Slots)),
	}
}

func (t *Tracker) Mode() domain.AcquisitionMode {
	return t.mode
}

func (t *Tracker) Status(slot domain.Slot) (domain.UploadStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[slot]
	return s, ok
}

// Statuses returns the known slot states in slot order.
func (t *Tracker) Statuses() []domain.UploadStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []domain.UploadStatus
	for _, slot := range domain.Slots {
		if s, ok := t.slots[slot]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (t *Tracker) set(status domain.UploadStatus) (bothReady bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := t.uploadsReady()
	t.slots[status.Slot] = status
	return !before && t.uploadsReady()
}

func (t *Tracker) uploadsReady() bool {
	for _, slot := range domain.Slots {
		if !t.slots[slot].Ready() {
			return false
		}
	}
	return true
}

// SetDate selects the analysis date. An empty value clears the selection.
func (t *Tracker) SetDate(date string) error {
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.date = date
	return nil
}

func (t *Tracker) Date() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.date
}

// CanAnalyze requires both uploads in upload mode and a selected date in date mode.
func (t *Tracker) CanAnalyze() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mode == domain.ModeDate {
		return t.date != ""
	}
	return t.uploadsReady()
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slots = make(map[domain.Slot]domain.UploadStatus, len(domain.Slots))
	t.date = ""
}
