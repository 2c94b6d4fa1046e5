package model

import "fmt"

// Record is one timed interval on a task. A record whose duration is still 0
// has not been stopped yet.
type Record struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Task    int64  `json:"task"`
	StartAt int64  `json:"start"`
	Seconds int64  `json:"duration"`
}

// Start returns the unix second the interval began
func (r *Record) Start() int64 { return r.StartAt }

// Duration returns the stored length in seconds
func (r *Record) Duration() int64 { return r.Seconds }

// SetDuration overwrites the length in seconds
func (r *Record) SetDuration(v int64) { r.Seconds = v }

// Incomplete reports whether the interval is still running
func (r *Record) Incomplete() bool { return r.Seconds == 0 }

// Copy returns an independent copy of the record
func (r *Record) Copy() *Record {
	c := *r
	return &c
}

// FormatDuration renders seconds as H:MM:SS
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
