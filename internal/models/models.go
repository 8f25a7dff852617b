// Package models holds the persisted domain records shared by the
// repositories and the services above them.
package models

import "time"

// LedgerEntry maps a content fingerprint to the remote path it was first
// persisted under. An entry exists only for files whose remote write
// succeeded.
type LedgerEntry struct {
	Fingerprint string    `json:"fingerprint"`
	Filename    string    `json:"filename"`
	Path        string    `json:"path"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// HistoryRecord is one upload attempt outcome.
type HistoryRecord struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Status    string    `json:"status"` // "success" or "error"
	ErrorKind string    `json:"errorKind,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// History record status values.
const (
	HistorySuccess = "success"
	HistoryError   = "error"
)

// HistoryStat aggregates upload outcomes for one calendar day (UTC).
type HistoryStat struct {
	Day     string `json:"day"` // "2006-01-02"
	Success int    `json:"success"`
	Errors  int    `json:"errors"`
}

// Setting is one persisted key/value pair.
type Setting struct {
	Key   string
	Value string
}
