package models

import "time"

// Operation log cap: once the log grows past MaxLogEntries, the oldest
// LogTrimBatch entries are dropped in one trim.
const (
	MaxLogEntries = 1000
	LogTrimBatch  = 100
)

// LogEntry is one append-only audit record of a key or binding operation.
type LogEntry struct {
	ID      int64     `json:"id"`
	Action  string    `json:"action"`
	User    string    `json:"user"`
	Key     string    `json:"key"`
	Details string    `json:"details"`
	Time    time.Time `json:"time"`
}
