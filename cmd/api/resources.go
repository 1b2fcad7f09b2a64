package main

import (
	"net/http"
	"time"

	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/scheduler"
)

type resourcePayload struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	IsAvailable *bool   `json:"is_available"`
}

func (p resourcePayload) apply(target *models.Resource) {
	if p.Name != nil {
		target.Name = *p.Name
	}
	if p.Type != nil {
		target.Type = *p.Type
	}
	if p.IsAvailable != nil {
		target.IsAvailable = *p.IsAvailable
	}
}

func (s *server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	payload := resourcePayload{}
	if !decodeBody(w, r, &payload) {
		return
	}
	resource := models.Resource{IsAvailable: true}
	payload.apply(&resource)
	if resource.Name == "" || resource.Type == "" {
		respondDomainError(w, &scheduler.ValidationError{Field: "resource", Reason: "name and type are required"})
		return
	}
	respondJSON(w, http.StatusCreated, s.store.CreateResource(&resource))
}

func (s *server) handleListResources(w http.ResponseWriter, r *http.Request) {
	out := s.store.ListResources(r.URL.Query().Get("type"), queryBool(r, "available"))
	if out == nil {
		out = []*models.Resource{}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *server) handleGetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resource, err := s.store.GetResource(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resource)
}

func (s *server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload resourcePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	existing, err := s.store.GetResource(id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	updated := *existing
	payload.apply(&updated)
	saved, err := s.store.UpdateResource(&updated)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *server) handleDeleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteResource(id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "resource deleted"})
}

func (s *server) handleCreateTimeSlot(w http.ResponseWriter, r *http.Request) {
	var slot models.TimeSlot
	slot.IsAvailable = true
	if !decodeBody(w, r, &slot) {
		return
	}
	if !slot.End.After(slot.Start) {
		respondDomainError(w, &scheduler.ValidationError{Field: "time_slot", Reason: "end must be after start"})
		return
	}
	created, err := s.store.CreateTimeSlot(&slot)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *server) handleListTimeSlots(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		to = parsed
	}
	out := s.store.ListTimeSlots(from, to, queryBool(r, "available"))
	if out == nil {
		out = []*models.TimeSlot{}
	}
	respondJSON(w, http.StatusOK, out)
}
