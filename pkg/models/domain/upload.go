package domain

// Slot identifies one of the two required input files.
type Slot string

const (
	SlotJ       Slot = "j"
	SlotJMinus1 Slot = "j1"
)

var Slots = []Slot{SlotJ, SlotJMinus1}

// FileType is the value the backend expects in the file_type form field.
func (s Slot) FileType() string {
	if s == SlotJMinus1 {
		return "jMinus1"
	}
	return "j"
}

// Label is the card title shown to the user.
func (s Slot) Label() string {
	if s == SlotJMinus1 {
		return "D-1"
	}
	return "D"
}

// ParseSlot accepts both the internal ids and the backend file types.
func ParseSlot(v string) (Slot, bool) {
	switch v {
	case "j", "J":
		return SlotJ, true
	case "j1", "J1", "jMinus1":
		return SlotJMinus1, true
	}
	return "", false
}

type UploadState string

const (
	UploadPending UploadState = "uploading"
	UploadReady   UploadState = "success"
	UploadTimeout UploadState = "timeout"
	UploadFailed  UploadState = "error"
)

type UploadStatus struct {
	Slot     Slot        `json:"slot"`
	State    UploadState `json:"state"`
	FileName string      `json:"file_name"`
	Size     int64       `json:"size"`
	Rows     int         `json:"rows"`
	Columns  int         `json:"columns"`
	Message  string      `json:"message,omitempty"`
}

func (s UploadStatus) Ready() bool {
	return s.State == UploadReady
}
