package models

import "time"

type CPTCode struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	// Capability names the resource type that can service the procedure
	// (Exam Room, X-Ray Room, Lab, EKG Room, ...).
	Capability string    `json:"capability"`
	CreatedAt  time.Time `json:"created_at"`
}
