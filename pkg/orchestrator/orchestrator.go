// Package orchestrator runs an analysis for a session and sequences the assistant reveal.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/de-tools/alm-console/pkg/render"
	"github.com/de-tools/alm-console/pkg/session"
	"github.com/de-tools/alm-console/pkg/store/client"
	"github.com/rs/zerolog"
)

var (
	ErrNotReady         = errors.New("analysis inputs are not ready")
	ErrAnalysisInFlight = errors.New("an analysis is already running for this session")
	ErrNoAnalysis       = errors.New("no successful analysis for this session")
)

const (
	MsgCompleted       = "Analyses successfully completed!"
	MsgPreparing       = "Analysis completed, preparing chatbot..."
	MsgAssistantReady  = "AI Assistant ready!"
	MsgAssistantWait   = "AI Assistant loading..."
	MsgAnalysisFailed  = "Analysis failed"
	msgInvalidResponse = "The analysis service returned an invalid response."
	msgTimeout         = "The analysis took too long and was cancelled."
	msgConnection      = "Could not reach the analysis service."
)

// Delays between the end of an analysis and the chat reveal.
type Delays struct {
	Context   time.Duration `mapstructure:"context"`
	Fallback  time.Duration `mapstructure:"fallback"`
	NoContext time.Duration `mapstructure:"no_context"`
}

func DefaultDelays() Delays {
	return Delays{
		Context:   time.Second,
		Fallback:  time.Second,
		NoContext: 3 * time.Second,
	}
}

// Result is what the page mounts after an analysis request.
type Result struct {
	render.Output
	Phase          domain.Phase            `json:"phase"`
	ContextLoading bool                    `json:"context_loading"`
	FilesUsed      map[string]api.FileInfo `json:"files_used,omitempty"`
	Notifications  []format.Notification   `json:"notifications"`
}

// Assistant reports how the chat panel was revealed.
type Assistant struct {
	Confirmed     bool                  `json:"confirmed"`
	Greeted       bool                  `json:"greeted"`
	Notifications []format.Notification `json:"notifications"`
}

type Orchestrator struct {
	acquirer Acquirer
	status   Backend
	renderer *render.Renderer
	delays   Delays
	wait     func(ctx context.Context, d time.Duration) error
}

func New(acquirer Acquirer, status Backend, renderer *render.Renderer, delays Delays) *Orchestrator {
	return &Orchestrator{
		acquirer: acquirer,
		status:   status,
		renderer: renderer,
		delays:   delays,
		wait:     wait,
	}
}

func (o *Orchestrator) Mode() domain.AcquisitionMode {
	return o.acquirer.Mode()
}

// Analyze runs one analysis for state. Backend failures are rendered into the
// result and also returned as an error; precondition failures return an empty result.
func (o *Orchestrator) Analyze(ctx context.Context, state *session.State) (Result, error) {
	logger := zerolog.Ctx(ctx)

	if !state.Uploads.CanAnalyze() {
		return Result{}, ErrNotReady
	}
	if !state.Begin() {
		return Result{}, ErrAnalysisInFlight
	}

	started := time.Now()
	resp, err := o.acquirer.Acquire(ctx, state.Uploads)
	if err == nil && !resp.Success {
		err = &rejectedError{message: resp.Message}
	}
	if err != nil {
		state.Fail()
		logger.Error().Err(err).Str("mode", string(o.acquirer.Mode())).Msg("analysis failed")
		return o.failure(FailureMessage(err)), fmt.Errorf("analysis failed: %w", err)
	}

	out, err := o.renderer.Render(resp.Results)
	if err != nil {
		state.Fail()
		logger.Error().Err(err).Msg("failed to render analysis results")
		return o.failure(render.GenericAnalysisError), err
	}
	state.Succeed(resp.Results, resp.ContextReady)

	logger.Info().
		Str("mode", string(o.acquirer.Mode())).
		Dur("elapsed", time.Since(started)).
		Int("charts", len(out.Charts)).
		Bool("context_ready", resp.ContextReady).
		Msg("analysis completed")

	notice := format.Success(MsgCompleted)
	if !resp.ContextReady {
		notice = format.Info(MsgPreparing)
	}
	return Result{
		Output:         out,
		Phase:          domain.PhaseSuccess,
		ContextLoading: true,
		FilesUsed:      resp.FilesUsed,
		Notifications:  []format.Notification{notice},
	}, nil
}

// AwaitAssistant waits for the assistant context and reveals the chat panel.
// The panel is revealed even when readiness could not be confirmed.
func (o *Orchestrator) AwaitAssistant(ctx context.Context, state *session.State) (Assistant, error) {
	logger := zerolog.Ctx(ctx)

	if state.Phase() != domain.PhaseSuccess {
		return Assistant{}, ErrNoAnalysis
	}

	var result Assistant
	if state.ContextReady() {
		if err := o.wait(ctx, o.delays.Context); err != nil {
			return result, err
		}

		status, err := o.status.ContextStatus(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("context status check failed")
		}

		if err == nil && status.ContextReady {
			result.Confirmed = true
			result.Notifications = append(result.Notifications, format.Success(MsgAssistantReady))
		} else {
			result.Notifications = append(result.Notifications, format.Info(MsgAssistantWait))
			if err := o.wait(ctx, o.delays.Fallback); err != nil {
				return result, err
			}
		}
	} else if err := o.wait(ctx, o.delays.NoContext); err != nil {
		return result, err
	}

	result.Greeted = state.Chat.Reveal()
	return result, nil
}

// Run chains Analyze and AwaitAssistant.
func (o *Orchestrator) Run(ctx context.Context, state *session.State) (Result, Assistant, error) {
	res, err := o.Analyze(ctx, state)
	if err != nil {
		return res, Assistant{}, err
	}
	assistant, err := o.AwaitAssistant(ctx, state)
	return res, assistant, err
}

func (o *Orchestrator) failure(message string) Result {
	html, err := o.renderer.ErrorPanel(message)
	if err != nil {
		html = ""
	}
	return Result{
		Output:        render.Output{HTML: html},
		Phase:         domain.PhaseError,
		Notifications: []format.Notification{format.Error(MsgAnalysisFailed)},
	}
}

type rejectedError struct {
	message string
}

func (e *rejectedError) Error() string {
	if e.message == "" {
		return "analysis rejected by backend"
	}
	return e.message
}

// FailureMessage picks the text shown in the error panel.
func FailureMessage(err error) string {
	var (
		rejected *rejectedError
		status   *client.StatusError
	)
	switch {
	case errors.As(err, &rejected):
		if rejected.message != "" {
			return rejected.message
		}
		return render.GenericAnalysisError
	case errors.As(err, &status):
		return fmt.Sprintf("Server error %d: %s", status.StatusCode, status.Message)
	case errors.Is(err, client.ErrMalformedPayload):
		return msgInvalidResponse
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, context.Canceled):
		return render.GenericAnalysisError
	default:
		return msgConnection
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
