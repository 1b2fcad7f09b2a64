package main

import (
	"net/http"
	"time"

	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/scheduler"
)

type patientPayload struct {
	FirstName         *string    `json:"first_name"`
	LastName          *string    `json:"last_name"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	Gender            *string    `json:"gender"`
	PhoneNumber       *string    `json:"phone_number"`
	Email             *string    `json:"email"`
	Address           *string    `json:"address"`
	InsuranceProvider *string    `json:"insurance_provider"`
	InsuranceID       *string    `json:"insurance_id"`
}

func (p patientPayload) apply(target *models.Patient) {
	if p.FirstName != nil {
		target.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		target.LastName = *p.LastName
	}
	if p.DateOfBirth != nil {
		target.DateOfBirth = *p.DateOfBirth
	}
	if p.Gender != nil {
		target.Gender = *p.Gender
	}
	if p.PhoneNumber != nil {
		target.PhoneNumber = *p.PhoneNumber
	}
	if p.Email != nil {
		target.Email = *p.Email
	}
	if p.Address != nil {
		target.Address = *p.Address
	}
	if p.InsuranceProvider != nil {
		target.InsuranceProvider = *p.InsuranceProvider
	}
	if p.InsuranceID != nil {
		target.InsuranceID = *p.InsuranceID
	}
}

func (s *server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var payload patientPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	var patient models.Patient
	payload.apply(&patient)
	if patient.FirstName == "" || patient.LastName == "" {
		respondDomainError(w, &scheduler.ValidationError{Field: "name", Reason: "first_name and last_name are required"})
		return
	}
	respondJSON(w, http.StatusCreated, s.store.CreatePatient(&patient))
}

func (s *server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients := s.store.ListPatients(
		r.URL.Query().Get("name"),
		queryInt(r, "offset", 0),
		queryInt(r, "limit", 100),
	)
	if patients == nil {
		patients = []*models.Patient{}
	}
	respondJSON(w, http.StatusOK, patients)
}

func (s *server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	patient, err := s.store.GetPatient(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, patient)
}

func (s *server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload patientPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	existing, err := s.store.GetPatient(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	updated := *existing
	payload.apply(&updated)
	saved, err := s.store.UpdatePatient(&updated)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *server) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePatient(id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "patient deleted"})
}
