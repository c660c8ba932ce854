package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/alm-console/pkg/chat"
	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/render"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
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

type recorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recorder) wait(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func newOrchestrator(t *testing.T, mode domain.AcquisitionMode, backend *mockBackend) (*Orchestrator, *recorder) {
	t.Helper()
	acquirer, err := NewAcquirer(mode, backend, time.Minute)
	require.NoError(t, err)

	rec := &recorder{}
	o := New(acquirer, backend, render.New(nil), DefaultDelays())
	o.wait = rec.wait
	return o, rec
}

func readyState(t *testing.T, mode domain.AcquisitionMode) *session.State {
	t.Helper()
	state := session.NewStore(mode, time.Hour).Get("")
	if mode == domain.ModeDate {
		require.NoError(t, state.Uploads.SetDate("2025-03-14"))
	}
	return state
}

func successPayload(contextReady bool) api.AnalysisResponse {
	return api.AnalysisResponse{
		Success:      true,
		ContextReady: contextReady,
		Results: &api.AnalysisResults{
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

func TestAnalyze_NotReady(t *testing.T) {
	backend := new(mockBackend)
	o, _ := newOrchestrator(t, domain.ModeUpload, backend)

	state := session.NewStore(domain.ModeUpload, time.Hour).Get("")
	_, err := o.Analyze(context.Background(), state)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, domain.PhaseIdle, state.Phase())
	backend.AssertNotCalled(t, "Analyze", mock.Anything)
}

func TestAnalyze_InFlight(t *testing.T) {
	backend := new(mockBackend)
	o, _ := newOrchestrator(t, domain.ModeDate, backend)

	state := readyState(t, domain.ModeDate)
	require.True(t, state.Begin())

	_, err := o.Analyze(context.Background(), state)
	assert.ErrorIs(t, err, ErrAnalysisInFlight)
	backend.AssertNotCalled(t, "AnalyzeByDate", mock.Anything, mock.Anything)
}

func TestAnalyze_SuccessByDate(t *testing.T) {
	backend := new(mockBackend)
	backend.On("AnalyzeByDate", mock.Anything, "2025-03-14").Return(successPayload(true), nil)
	o, _ := newOrchestrator(t, domain.ModeDate, backend)

	state := readyState(t, domain.ModeDate)
	res, err := o.Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseSuccess, res.Phase)
	assert.Equal(t, domain.PhaseSuccess, state.Phase())
	assert.True(t, res.ContextLoading)
	require.Len(t, res.Charts, 1)
	assert.Equal(t, "metier-chart-0", res.Charts[0].CanvasID)
	assert.Contains(t, res.HTML, `id="metier-chart-0"`)
	assert.Equal(t, MsgCompleted, res.Notifications[0].Message)

	_, ok := state.Results()
	assert.True(t, ok)
}

func TestAnalyze_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    api.AnalysisResponse
		err     error
		message string
	}{
		{name: "rejected", resp: api.AnalysisResponse{Success: false, Message: "Files missing for date"}, message: "Files missing for date"},
		{name: "rejected without message", resp: api.AnalysisResponse{}, message: render.GenericAnalysisError},
		{name: "status", err: &client.StatusError{StatusCode: 500, Message: "Internal Server Error"}, message: "Server error 500: Internal Server Error"},
		{name: "malformed", err: client.ErrMalformedPayload, message: msgInvalidResponse},
		{name: "timeout", err: context.DeadlineExceeded, message: msgTimeout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := new(mockBackend)
			backend.On("Analyze", mock.Anything).Return(tc.resp, tc.err)
			o, _ := newOrchestrator(t, domain.ModeUpload, backend)

			state := readyUploadState(t)
			res, err := o.Analyze(context.Background(), state)
			require.Error(t, err)

			assert.Equal(t, domain.PhaseError, res.Phase)
			assert.Equal(t, domain.PhaseError, state.Phase())
			assert.False(t, res.ContextLoading)
			assert.Contains(t, res.HTML, tc.message)
			assert.Empty(t, res.Charts)
			require.Len(t, res.Notifications, 1)
			assert.Equal(t, format.LevelError, res.Notifications[0].Level)

			// a failed analysis can be retried
			assert.True(t, state.Begin())
		})
	}
}

func readyUploadState(t *testing.T) *session.State {
	t.Helper()
	state := readyState(t, domain.ModeUpload)

	backend := new(uploadBackend)
	uploader := newUploader(backend)
	for _, slot := range domain.Slots {
		_, err := uploader.Upload(context.Background(), state.Uploads, slot, uploadFile())
		require.NoError(t, err)
	}
	require.True(t, state.Uploads.CanAnalyze())
	return state
}

func TestAwaitAssistant(t *testing.T) {
	tests := []struct {
		name         string
		contextReady bool
		status       api.ContextStatus
		statusErr    error
		confirmed    bool
		notice       string
		waits        []time.Duration
	}{
		{
			name:         "confirmed",
			contextReady: true,
			status:       api.ContextStatus{ContextReady: true},
			confirmed:    true,
			notice:       MsgAssistantReady,
			waits:        []time.Duration{time.Second},
		},
		{
			name:         "not yet ready",
			contextReady: true,
			status:       api.ContextStatus{ContextReady: false},
			notice:       MsgAssistantWait,
			waits:        []time.Duration{time.Second, time.Second},
		},
		{
			name:         "status check fails open",
			contextReady: true,
			statusErr:    &client.StatusError{StatusCode: 503, Message: "HTTP 503"},
			notice:       MsgAssistantWait,
			waits:        []time.Duration{time.Second, time.Second},
		},
		{
			name:         "no context hint",
			contextReady: false,
			waits:        []time.Duration{3 * time.Second},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			backend := new(mockBackend)
			backend.On("AnalyzeByDate", mock.Anything, "2025-03-14").Return(successPayload(tc.contextReady), nil)
			backend.On("ContextStatus", mock.Anything).Return(tc.status, tc.statusErr)
			o, rec := newOrchestrator(t, domain.ModeDate, backend)

			state := readyState(t, domain.ModeDate)
			_, assistant, err := o.Run(context.Background(), state)
			require.NoError(t, err)

			assert.Equal(t, tc.confirmed, assistant.Confirmed)
			assert.True(t, assistant.Greeted)
			assert.True(t, state.Chat.Visible())
			assert.Equal(t, tc.waits, rec.waits)

			if tc.notice != "" {
				require.Len(t, assistant.Notifications, 1)
				assert.Equal(t, tc.notice, assistant.Notifications[0].Message)
			} else {
				assert.Empty(t, assistant.Notifications)
				backend.AssertNotCalled(t, "ContextStatus", mock.Anything)
			}

			messages := state.Chat.Messages()
			require.Len(t, messages, 1)
			assert.Equal(t, chat.Greeting, messages[0].Message)
		})
	}
}

func TestAwaitAssistant_KeepsExistingConversation(t *testing.T) {
	backend := new(mockBackend)
	backend.On("AnalyzeByDate", mock.Anything, "2025-03-14").Return(successPayload(false), nil)
	o, _ := newOrchestrator(t, domain.ModeDate, backend)

	state := readyState(t, domain.ModeDate)
	_, first, err := o.Run(context.Background(), state)
	require.NoError(t, err)
	assert.True(t, first.Greeted)

	_, second, err := o.Run(context.Background(), state)
	require.NoError(t, err)
	assert.False(t, second.Greeted)
	assert.Len(t, state.Chat.Messages(), 1)
}

func TestAwaitAssistant_Cancelled(t *testing.T) {
	backend := new(mockBackend)
	backend.On("AnalyzeByDate", mock.Anything, "2025-03-14").Return(successPayload(false), nil)
	o, _ := newOrchestrator(t, domain.ModeDate, backend)
	o.wait = wait

	state := readyState(t, domain.ModeDate)
	_, err := o.Analyze(context.Background(), state)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = o.AwaitAssistant(ctx, state)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, state.Chat.Visible())
}

func TestAwaitAssistant_RequiresSuccess(t *testing.T) {
	o, _ := newOrchestrator(t, domain.ModeDate, new(mockBackend))
	_, err := o.AwaitAssistant(context.Background(), readyState(t, domain.ModeDate))
	assert.ErrorIs(t, err, ErrNoAnalysis)
}

func TestWait(t *testing.T) {
	require.NoError(t, wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, wait(ctx, time.Hour), context.Canceled)
}

func TestNewAcquirer(t *testing.T) {
	a, err := NewAcquirer(domain.ModeUpload, new(mockBackend), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeUpload, a.Mode())

	a, err = NewAcquirer(domain.ModeDate, new(mockBackend), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDate, a.Mode())

	_, err = NewAcquirer("ftp", new(mockBackend), 0)
	assert.Error(t, err)
}
