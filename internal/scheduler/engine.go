package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"clinic-scheduling/internal/models"
)

// Engine runs one optimization batch over a static snapshot of pending
// procedures and free slots. Batches are greedy and priority ordered;
// committed assignments are never revisited within a run.
type Engine struct {
	catalog CatalogProvider
	sink    PersistenceSink
	log     zerolog.Logger
}

func NewEngine(catalog CatalogProvider, sink PersistenceSink, log zerolog.Logger) *Engine {
	return &Engine{catalog: catalog, sink: sink, log: log}
}

// Result is the outcome of one batch: appointments in commitment order
// (which is priority order) plus the requests that could not be placed,
// with reasons. Per-request failures never abort the batch.
type Result struct {
	Appointments []*models.Appointment
	Unassigned   []UnassignedProcedure
	Score        float64
}

type UnassignedProcedure struct {
	Request ProcedureRequest
	Reason  IneligibilityReason
}

// Run loads the snapshot, optimizes it and commits the outcome through
// the sink. The caller must hold whatever lock serializes batches against
// concurrent cancellations; the engine itself performs no locking.
func (e *Engine) Run(ctx context.Context, req ScheduleRequest) (*ScheduleResponse, error) {
	weights := DefaultWeights()
	if req.Weights != nil {
		weights = *req.Weights
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, &ValidationError{Field: "end_date", Reason: "must be after start_date"}
	}

	procedures, err := e.catalog.PendingProcedures(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("load procedures: %w", err)
	}
	if len(procedures) == 0 {
		return &ScheduleResponse{
			Appointments:          []*models.Appointment{},
			UnscheduledProcedures: []UnscheduledProcedure{},
			Message:               "No procedures to schedule",
		}, nil
	}

	slots, err := e.catalog.FreeSlots(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	result, err := Optimize(procedures, slots, weights, e.log)
	if err != nil {
		return nil, err
	}

	if len(result.Appointments) > 0 {
		if err := e.sink.CommitBatch(ctx, result.Appointments); err != nil {
			return nil, fmt.Errorf("commit batch: %w", err)
		}
	}

	e.log.Info().
		Int("scheduled", len(result.Appointments)).
		Int("unscheduled", len(result.Unassigned)).
		Float64("score", result.Score).
		Msg("optimization batch complete")

	resp := buildResponse(result, len(procedures))
	if len(slots) == 0 {
		resp.Message = "No available time slots in the specified date range"
	}
	return resp, nil
}

// Optimize assigns procedures to slots over one in-memory snapshot. It
// validates the snapshot, walks requests in priority order and greedily
// commits the best-scoring eligible slot for each. Deterministic for
// identical input order; no I/O.
func Optimize(requests []ProcedureRequest, slots []Slot, weights Weights, log zerolog.Logger) (*Result, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if err := validateSnapshot(requests, slots); err != nil {
		return nil, err
	}

	ordered := make([]ProcedureRequest, len(requests))
	copy(ordered, requests)
	// Priority desc, severity desc; SliceStable keeps submission order as
	// the final tiebreak.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Severity > ordered[j].Severity
	})

	stats := newBatchStats(ordered)
	taken := make(map[int64]bool, len(slots))
	result := &Result{}
	now := time.Now().UTC()

	for _, req := range ordered {
		bestIdx := -1
		bestScore := 0.0
		// Deepest check reached across candidates; with no candidates at
		// all the report is "no free slot with matching capability".
		reason := ReasonCapabilityMismatch

		for i := range slots {
			slot := slots[i]
			if taken[slot.ID] {
				continue // consumed earlier in this batch
			}
			ok, r := checkConstraints(req, slot)
			if !ok {
				if r > reason {
					reason = r
				}
				continue
			}
			reqVec, slotVec := encodePair(req, slot, stats, weights)
			score := Cosine(reqVec, slotVec)
			if bestIdx == -1 || score > bestScore ||
				(score == bestScore && earlierSlot(slot, slots[bestIdx])) {
				bestIdx, bestScore = i, score
			}
		}

		if bestIdx == -1 {
			result.Unassigned = append(result.Unassigned, UnassignedProcedure{Request: req, Reason: reason})
			continue
		}

		slot := slots[bestIdx]
		if taken[slot.ID] {
			// Unreachable given the filter; refuse rather than double-book.
			log.Error().
				Int64("slot_id", slot.ID).
				Int64("procedure_id", req.ID).
				Msg("slot already taken at commit")
			return nil, &StateConflictError{Op: "assign slot", ID: slot.ID, State: "assigned"}
		}
		taken[slot.ID] = true

		result.Appointments = append(result.Appointments, &models.Appointment{
			PatientID:   req.PatientID,
			ProcedureID: req.ID,
			ResourceID:  slot.ResourceID,
			SlotID:      slot.ID,
			Start:       slot.Start,
			End:         slot.End,
			Status:      models.AppointmentScheduled,
			Notes:       "scheduled by optimizer",
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	maxPriority := 0
	if len(ordered) > 0 {
		maxPriority = ordered[0].Priority
	}
	result.Score = optimizationScore(len(result.Appointments), len(requests), result.Unassigned, maxPriority)
	return result, nil
}

// earlierSlot is the deterministic tiebreak for equal scores: earliest
// start, then lowest resource identifier.
func earlierSlot(a, b Slot) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	return a.ResourceID < b.ResourceID
}

func validateSnapshot(requests []ProcedureRequest, slots []Slot) error {
	for _, r := range requests {
		if r.DurationMinutes <= 0 {
			return &ValidationError{
				Field:  fmt.Sprintf("procedure %d duration", r.ID),
				Reason: "must be positive",
			}
		}
		if r.Priority < 0 {
			return &ValidationError{
				Field:  fmt.Sprintf("procedure %d priority", r.ID),
				Reason: "must be non-negative",
			}
		}
		for _, w := range r.Preferred {
			if !w.End.After(w.Start) {
				return &ValidationError{
					Field:  fmt.Sprintf("procedure %d preferred window", r.ID),
					Reason: "end must be after start",
				}
			}
		}
	}
	for _, s := range slots {
		if !s.End.After(s.Start) {
			return &ValidationError{
				Field:  fmt.Sprintf("slot %d", s.ID),
				Reason: "end must be after start",
			}
		}
	}
	return nil
}

// optimizationScore balances the share of requests placed against the
// urgency of what was left behind. Clamped to [0, 1].
func optimizationScore(scheduled, total int, unassigned []UnassignedProcedure, maxPriority int) float64 {
	if total == 0 {
		return 0
	}
	score := float64(scheduled) / float64(total)
	if maxPriority > 0 {
		var penalty float64
		for _, u := range unassigned {
			penalty += float64(u.Request.Priority) / float64(maxPriority)
		}
		score -= 0.2 * penalty / float64(total)
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func buildResponse(res *Result, total int) *ScheduleResponse {
	appointments := res.Appointments
	if appointments == nil {
		appointments = []*models.Appointment{}
	}
	unscheduled := make([]UnscheduledProcedure, 0, len(res.Unassigned))
	for _, u := range res.Unassigned {
		unscheduled = append(unscheduled, UnscheduledProcedure{
			ProcedureID: u.Request.ID,
			Reason:      u.Reason.String(),
		})
	}
	return &ScheduleResponse{
		Appointments:          appointments,
		UnscheduledProcedures: unscheduled,
		OptimizationScore:     res.Score,
		Message:               fmt.Sprintf("Scheduled %d out of %d procedures", len(appointments), total),
	}
}
