package models

import "time"

type Diagnosis struct {
	ID          int64     `json:"id"`
	ICDCode     string    `json:"icd_code"`
	Description string    `json:"description"`
	Severity    int       `json:"severity"` // 1 (mild) to 5 (severe)
	CreatedAt   time.Time `json:"created_at"`
}
