package main

import (
	"net/http"

	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/scheduler"
)

func (s *server) handleCreateDiagnosis(w http.ResponseWriter, r *http.Request) {
	var d models.Diagnosis
	if !decodeBody(w, r, &d) {
		return
	}
	if d.ICDCode == "" {
		respondDomainError(w, &scheduler.ValidationError{Field: "icd_code", Reason: "is required"})
		return
	}
	if d.Severity < 1 || d.Severity > 5 {
		respondDomainError(w, &scheduler.ValidationError{Field: "severity", Reason: "must be between 1 and 5"})
		return
	}
	respondJSON(w, http.StatusCreated, s.store.CreateDiagnosis(&d))
}

func (s *server) handleListDiagnoses(w http.ResponseWriter, r *http.Request) {
	out := s.store.ListDiagnoses(r.URL.Query().Get("icd_code"), queryInt(r, "severity", 0))
	if out == nil {
		out = []*models.Diagnosis{}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) handleGetDiagnosis(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	d, err := s.store.GetDiagnosis(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *server) handleCreateCPTCode(w http.ResponseWriter, r *http.Request) {
	var c models.CPTCode
	if !decodeBody(w, r, &c) {
		return
	}
	if c.Code == "" {
		respondDomainError(w, &scheduler.ValidationError{Field: "code", Reason: "is required"})
		return
	}
	if c.DurationMinutes <= 0 {
		respondDomainError(w, &scheduler.ValidationError{Field: "duration_minutes", Reason: "must be positive"})
		return
	}
	if c.Capability == "" {
		respondDomainError(w, &scheduler.ValidationError{Field: "capability", Reason: "is required"})
		return
	}
	respondJSON(w, http.StatusCreated, s.store.CreateCPTCode(&c))
}

func (s *server) handleListCPTCodes(w http.ResponseWriter, r *http.Request) {
	out := s.store.ListCPTCodes(r.URL.Query().Get("code"))
	if out == nil {
		out = []*models.CPTCode{}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) handleGetCPTCode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.store.GetCPTCode(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *server) handleCreatePatientDiagnosis(w http.ResponseWriter, r *http.Request) {
	var pd models.PatientDiagnosis
	if !decodeBody(w, r, &pd) {
		return
	}
	if _, err := s.store.GetPatient(pd.PatientID); err != nil {
		respondDomainError(w, err)
		return
	}
	if _, err := s.store.GetDiagnosis(pd.DiagnosisID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.store.CreatePatientDiagnosis(&pd))
}

func (s *server) handleListPatientDiagnoses(w http.ResponseWriter, r *http.Request) {
	out := s.store.ListPatientDiagnoses(queryInt64(r, "patient_id"))
	if out == nil {
		out = []*models.PatientDiagnosis{}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) handleCreatePatientProcedure(w http.ResponseWriter, r *http.Request) {
	var pp models.PatientProcedure
	if !decodeBody(w, r, &pp) {
		return
	}
	if _, err := s.store.GetPatient(pp.PatientID); err != nil {
		respondDomainError(w, err)
		return
	}
	if _, err := s.store.GetCPTCode(pp.CPTCodeID); err != nil {
		respondDomainError(w, err)
		return
	}
	if pp.DiagnosisID != 0 {
		if _, err := s.store.GetDiagnosis(pp.DiagnosisID); err != nil {
			respondDomainError(w, err)
			return
		}
	}
	if pp.Priority < 1 || pp.Priority > 5 {
		respondDomainError(w, &scheduler.ValidationError{Field: "priority", Reason: "must be between 1 and 5"})
		return
	}
	for _, window := range pp.PreferredWindows {
		if !window.End.After(window.Start) {
			respondDomainError(w, &scheduler.ValidationError{Field: "preferred_windows", Reason: "end must be after start"})
			return
		}
	}
	respondJSON(w, http.StatusCreated, s.store.CreatePatientProcedure(&pp))
}

func (s *server) handleListPatientProcedures(w http.ResponseWriter, r *http.Request) {
	out := s.store.ListPatientProcedures(queryInt64(r, "patient_id"))
	if out == nil {
		out = []*models.PatientProcedure{}
	}
	respondJSON(w, http.StatusOK, out)
}
