package domain

import "time"

type RemoteFile struct {
	Expected string `json:"expected"`
	Key      string `json:"key,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Found    bool   `json:"found"`
}

// DateFiles describes the source files of a date-driven analysis.
type DateFiles struct {
	Date     time.Time  `json:"date"`
	Current  RemoteFile `json:"current"`
	Previous RemoteFile `json:"previous"`
	Checked  bool       `json:"checked"`
}
