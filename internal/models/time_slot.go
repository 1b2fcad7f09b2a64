package models

import "time"

type TimeSlot struct {
	ID         int64     `json:"id"`
	ResourceID int64     `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	// IsAvailable is false once an active appointment owns the slot.
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *TimeSlot) DurationMinutes() int {
	return int(s.End.Sub(s.Start).Minutes())
}
