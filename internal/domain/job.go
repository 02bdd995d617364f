package domain

import "time"

// JobStatus enumerates generation job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusAssembling JobStatus = "assembling"
	JobStatusComplete   JobStatus = "complete"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusFailed
}

const (
	// MinUnitCount and MaxUnitCount bound the number of content units a
	// single job may request.
	MinUnitCount = 1
	MaxUnitCount = 20

	// DefaultUnitCount is applied when a request omits the unit count.
	DefaultUnitCount = 7
)

// GenerationJob encapsulates one deck generation run. Its mutable fields
// (Status, ResultPath, ErrorMessage) are owned exclusively by the
// orchestrator driving the job.
type GenerationJob struct {
	ID           string
	UserID       string
	Topic        string
	UnitCount    int
	Language     string // display name, e.g. "English" or "Uzbek"
	Template     string // opaque renderer template selector
	Status       JobStatus
	ResultPath   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClampUnitCount normalizes a requested unit count into the supported range,
// substituting the default when the value is unset.
func ClampUnitCount(n int) int {
	if n == 0 {
		return DefaultUnitCount
	}
	if n < MinUnitCount {
		return MinUnitCount
	}
	if n > MaxUnitCount {
		return MaxUnitCount
	}
	return n
}
