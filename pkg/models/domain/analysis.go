package domain

// Phase is the state of the analysis orchestrator for one session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// AcquisitionMode selects how the two comparison files reach the backend.
type AcquisitionMode string

const (
	ModeUpload AcquisitionMode = "upload"
	ModeDate   AcquisitionMode = "date"
)

func (m AcquisitionMode) Valid() bool {
	return m == ModeUpload || m == ModeDate
}
