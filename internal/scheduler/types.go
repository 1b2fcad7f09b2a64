package scheduler

import (
	"encoding/json"
	"time"

	"clinic-scheduling/internal/models"
)

// ProcedureRequest is one pending procedure flattened for the optimizer:
// the catalog provider resolves patient, CPT and diagnosis attributes
// before the batch starts. Immutable once submitted to a batch.
type ProcedureRequest struct {
	ID              int64
	PatientID       int64
	Capability      string
	DurationMinutes int
	// Priority is ordinal, higher = more urgent.
	Priority int
	// Severity of the linked diagnosis, 1..5.
	Severity int
	// Preferred windows; empty means any time suits the patient.
	Preferred []models.TimeWindow
}

// Slot is one bookable resource interval in the batch snapshot. Free
// flips to false once an active appointment owns the slot.
type Slot struct {
	ID         int64
	ResourceID int64
	Capability string
	Start      time.Time
	End        time.Time
	Free       bool
}

func (s Slot) DurationMinutes() int {
	return int(s.End.Sub(s.Start).Minutes())
}

// Weights bias the similarity score toward urgent patients, tight
// duration packing, resource utilization or preference satisfaction.
// All must be non-negative; 1.0 is neutral.
type Weights struct {
	Priority    float64 `json:"priority"`
	Duration    float64 `json:"duration"`
	Utilization float64 `json:"utilization"`
	Preference  float64 `json:"preference"`
}

func DefaultWeights() Weights {
	return Weights{Priority: 1, Duration: 1, Utilization: 1, Preference: 1}
}

// UnmarshalJSON decodes over the defaults, so a payload that names only
// some multipliers leaves the rest at 1.0 instead of zeroing them. An
// explicit 0 still zeroes an axis.
func (w *Weights) UnmarshalJSON(data []byte) error {
	type plain Weights
	merged := plain(DefaultWeights())
	if err := json.Unmarshal(data, &merged); err != nil {
		return err
	}
	*w = Weights(merged)
	return nil
}

func (w Weights) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"priority", w.Priority},
		{"duration", w.Duration},
		{"utilization", w.Utilization},
		{"preference", w.Preference},
	}
	for _, c := range checks {
		if c.value < 0 {
			return &ValidationError{Field: "weights." + c.name, Reason: "must be non-negative"}
		}
	}
	return nil
}

// ScheduleRequest scopes one optimization batch.
type ScheduleRequest struct {
	PatientIDs   []int64   `json:"patient_ids,omitempty"`
	ProcedureIDs []int64   `json:"procedure_ids,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	// PriorityThreshold drops requests less urgent than the given value.
	PriorityThreshold *int     `json:"priority_threshold,omitempty"`
	Weights           *Weights `json:"weights,omitempty"`
}

// ScheduleResponse carries both the success and the failure list of a
// batch; callers must not assume an error-free run scheduled everything.
type ScheduleResponse struct {
	Appointments          []*models.Appointment  `json:"appointments"`
	UnscheduledProcedures []UnscheduledProcedure `json:"unscheduled_procedures"`
	OptimizationScore     float64                `json:"optimization_score"`
	Message               string                 `json:"message"`
}

type UnscheduledProcedure struct {
	ProcedureID int64  `json:"procedure_id"`
	Reason      string `json:"reason"`
}
