package models

import "time"

type PatientDiagnosis struct {
	ID            int64     `json:"id"`
	PatientID     int64     `json:"patient_id"`
	DiagnosisID   int64     `json:"diagnosis_id"`
	DiagnosedDate time.Time `json:"diagnosed_date"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}
