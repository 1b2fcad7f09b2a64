package models

import "time"

type Resource struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// Type doubles as the resource's capability tag (Exam Room, X-Ray
	// Room, Lab, EKG Room, Procedure Room, Consultation Room).
	Type        string    `json:"type"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
