package models

import "time"

// TimeWindow is a half-open [Start, End) range a patient prefers for an
// appointment.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type PatientProcedure struct {
	ID        int64 `json:"id"`
	PatientID int64 `json:"patient_id"`
	CPTCodeID int64 `json:"cpt_code_id"`
	// DiagnosisID is zero when the procedure is not tied to a diagnosis.
	DiagnosisID int64     `json:"diagnosis_id"`
	OrderedDate time.Time `json:"ordered_date"`
	// Priority is ordinal, higher = more urgent.
	Priority int `json:"priority"`
	// PreferredWindows empty means any time suits the patient.
	PreferredWindows []TimeWindow `json:"preferred_windows,omitempty"`
	Notes            string       `json:"notes"`
	CreatedAt        time.Time    `json:"created_at"`
}
