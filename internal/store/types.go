package store

import (
	"time"

	"github.com/google/uuid"
)

// RunRecord describes one execution of the sum sequence.
type RunRecord struct {
	// ID is a random UUID assigned by NewRunRecord.
	ID string `json:"id"`

	Backend  string `json:"backend"`
	Platform string `json:"platform"`
	Device   string `json:"device"`

	// Elements is the vector length.
	Elements int `json:"elements"`

	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`

	// Verified is true when the result was compared with the host computation.
	Verified bool `json:"verified"`
	// Mismatches counts elements that differed from the host computation.
	Mismatches int `json:"mismatches"`

	// Stage is the last stage the sequence reached.
	Stage string `json:"stage"`
	// Error is the failure message, empty on success.
	Error string `json:"error,omitempty"`
}

// RunInfo is the summary shown when listing runs.
type RunInfo struct {
	ID        string        `json:"id"`
	Backend   string        `json:"backend"`
	Device    string        `json:"device"`
	Elements  int           `json:"elements"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	OK        bool          `json:"ok"`
}

// NewRunRecord creates a record with a fresh ID and the current time.
func NewRunRecord(backend string, elements int) *RunRecord {
	return &RunRecord{
		ID:        uuid.New().String(),
		Backend:   backend,
		Elements:  elements,
		Timestamp: time.Now(),
	}
}

// Succeeded reports whether the run completed without error or mismatch.
func (r *RunRecord) Succeeded() bool {
	return r.Error == "" && r.Mismatches == 0
}

// ToInfo converts a full record to its listing summary.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		ID:        r.ID,
		Backend:   r.Backend,
		Device:    r.Device,
		Elements:  r.Elements,
		Timestamp: r.Timestamp,
		Duration:  r.Duration,
		OK:        r.Succeeded(),
	}
}

// Validate checks if the record has valid data.
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "ID", Reason: "cannot be empty"}
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return &ValidationError{Field: "ID", Reason: "must be a UUID"}
	}
	if r.Backend == "" {
		return &ValidationError{Field: "Backend", Reason: "cannot be empty"}
	}
	if r.Elements < 0 {
		return &ValidationError{Field: "Elements", Reason: "cannot be negative"}
	}
	if r.Mismatches < 0 || r.Mismatches > r.Elements {
		return &ValidationError{Field: "Mismatches", Reason: "must be between 0 and Elements"}
	}
	if r.Duration < 0 {
		return &ValidationError{Field: "Duration", Reason: "cannot be negative"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	return nil
}

// ValidationError represents a record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
