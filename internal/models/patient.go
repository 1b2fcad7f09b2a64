package models

import "time"

type Patient struct {
	ID                int64     `json:"id"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	DateOfBirth       time.Time `json:"date_of_birth"`
	Gender            string    `json:"gender"` // Male, Female, Other
	PhoneNumber       string    `json:"phone_number"`
	Email             string    `json:"email"`
	Address           string    `json:"address"`
	InsuranceProvider string    `json:"insurance_provider"`
	InsuranceID       string    `json:"insurance_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
