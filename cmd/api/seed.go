package main

import (
	"net/http"
	"time"

	"clinic-scheduling/internal/datagen"
)

type seedRequest struct {
	Patients  int   `json:"patients"`
	Resources int   `json:"resources"`
	DaysAhead int   `json:"days_ahead"`
	Seed      int64 `json:"seed"`
}

// handleSeed resets the store and fills it with a generated dataset.
// Runs under the schedule lock so it never races an in-flight batch.
func (s *server) handleSeed(w http.ResponseWriter, r *http.Request) {
	req := seedRequest{
		Patients:  s.seed.Patients,
		Resources: s.seed.Resources,
		DaysAhead: s.seed.DaysAhead,
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	s.scheduleMu.Lock()
	defer s.scheduleMu.Unlock()

	s.store.Reset()
	counts, err := datagen.New(req.Seed).Populate(s.store, req.Patients, req.Resources, req.DaysAhead)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.log.Info().
		Int("patients", counts.Patients).
		Int("resources", counts.Resources).
		Int("time_slots", counts.TimeSlots).
		Msg("store seeded")
	respondJSON(w, http.StatusOK, counts)
}
