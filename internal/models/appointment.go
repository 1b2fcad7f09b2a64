package models

import "time"

const (
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
)

type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	ProcedureID int64     `json:"procedure_id"`
	ResourceID  int64     `json:"resource_id"`
	SlotID      int64     `json:"slot_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status"` // scheduled, cancelled, completed
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
