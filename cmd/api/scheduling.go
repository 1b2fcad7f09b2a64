package main

import (
	"net/http"
	"time"

	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/scheduler"
	"clinic-scheduling/internal/store"
)

func (s *server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req scheduler.ScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.scheduleMu.Lock()
	start := time.Now()
	resp, err := s.engine.Run(r.Context(), req)
	elapsed := time.Since(start)
	s.scheduleMu.Unlock()

	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.metrics.BatchCompleted(len(resp.Appointments), elapsed.Seconds(), resp.OptimizationScore)
	for _, u := range resp.UnscheduledProcedures {
		s.metrics.ProcedureUnscheduled(u.Reason)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	filter := store.AppointmentFilter{
		PatientID:  queryInt64(r, "patient_id"),
		ResourceID: queryInt64(r, "resource_id"),
		Status:     r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		filter.From = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		filter.To = parsed
	}
	out := s.store.ListAppointments(filter)
	if out == nil {
		out = []*models.Appointment{}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	appt, err := s.store.GetAppointment(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, appt)
}

type cancelResponse struct {
	Appointment *models.Appointment `json:"appointment"`
	FreedSlot   *models.TimeSlot    `json:"freed_slot,omitempty"`
}

func (s *server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	s.scheduleMu.Lock()
	appt, slot, err := s.store.CancelAppointment(r.Context(), id)
	s.scheduleMu.Unlock()

	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.metrics.AppointmentCancelled()
	s.log.Info().Int64("appointment_id", id).Msg("appointment cancelled")
	respondJSON(w, http.StatusOK, cancelResponse{Appointment: appt, FreedSlot: slot})
}

func (s *server) handleCompleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.scheduleMu.Lock()
	appt, err := s.store.CompleteAppointment(id)
	s.scheduleMu.Unlock()

	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, appt)
}
