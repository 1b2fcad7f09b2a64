package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-scheduling/internal/db"
	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/scheduler"
)

// PostgresStore adapts the database to the optimizer's CatalogProvider
// and PersistenceSink. It is the backend of the one-shot batch runner;
// the snapshot queries run outside any transaction, the commit and the
// cancellation each run inside one.
type PostgresStore struct {
	q *db.Queries
}

func NewPostgresStore(conn *sql.DB) *PostgresStore {
	return &PostgresStore{q: db.New(conn)}
}

func (s *PostgresStore) PendingProcedures(ctx context.Context, req scheduler.ScheduleRequest) ([]scheduler.ProcedureRequest, error) {
	rows, err := s.q.ListPendingProcedures(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending procedures: %w", err)
	}

	patientFilter := toSet(req.PatientIDs)
	procedureFilter := toSet(req.ProcedureIDs)

	var out []scheduler.ProcedureRequest
	for _, r := range rows {
		if len(patientFilter) > 0 && !patientFilter[r.PatientID] {
			continue
		}
		if len(procedureFilter) > 0 && !procedureFilter[r.ID] {
			continue
		}
		if req.PriorityThreshold != nil && r.Priority < *req.PriorityThreshold {
			continue
		}

		var windows []models.TimeWindow
		if len(r.PreferredWindows) > 0 {
			if err := json.Unmarshal(r.PreferredWindows, &windows); err != nil {
				return nil, fmt.Errorf("procedure %d preferred windows: %w", r.ID, err)
			}
		}
		severity := 3 // neutral when no diagnosis is linked
		if r.Severity.Valid {
			severity = int(r.Severity.Int64)
		}

		out = append(out, scheduler.ProcedureRequest{
			ID:              r.ID,
			PatientID:       r.PatientID,
			Capability:      r.Capability,
			DurationMinutes: r.DurationMinutes,
			Priority:        r.Priority,
			Severity:        severity,
			Preferred:       windows,
		})
	}
	return out, nil
}

func (s *PostgresStore) FreeSlots(ctx context.Context, from, to time.Time) ([]scheduler.Slot, error) {
	rows, err := s.q.ListFreeSlots(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list free slots: %w", err)
	}
	out := make([]scheduler.Slot, 0, len(rows))
	for _, r := range rows {
		out = append(out, scheduler.Slot{
			ID:         r.ID,
			ResourceID: r.ResourceID,
			Capability: r.Capability,
			Start:      r.Start,
			End:        r.End,
			Free:       true,
		})
	}
	return out, nil
}

// CommitBatch claims each slot and inserts its appointment inside one
// transaction. A slot consumed since the snapshot was taken rolls the
// whole batch back with a state conflict.
func (s *PostgresStore) CommitBatch(ctx context.Context, appointments []*models.Appointment) error {
	tx, err := s.q.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	for _, a := range appointments {
		claimed, err := s.q.ClaimSlot(ctx, tx, a.SlotID)
		if err != nil {
			return fmt.Errorf("claim slot %d: %w", a.SlotID, err)
		}
		if !claimed {
			return &scheduler.StateConflictError{Op: "assign slot", ID: a.SlotID, State: "assigned"}
		}
		id, err := s.q.InsertAppointment(ctx, tx, db.AppointmentRow{
			PatientID:   a.PatientID,
			ProcedureID: a.ProcedureID,
			ResourceID:  a.ResourceID,
			SlotID:      a.SlotID,
			Start:       a.Start,
			End:         a.End,
			Status:      a.Status,
			Notes:       a.Notes,
		})
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		a.ID = id
	}
	return tx.Commit()
}

func (s *PostgresStore) CancelAppointment(ctx context.Context, id int64) (*models.Appointment, *models.TimeSlot, error) {
	tx, err := s.q.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin cancel: %w", err)
	}
	defer tx.Rollback()

	row, err := s.q.GetAppointmentForUpdate(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load appointment %d: %w", id, err)
	}
	if row.Status != models.AppointmentScheduled {
		return nil, nil, &scheduler.StateConflictError{Op: "cancel appointment", ID: id, State: row.Status}
	}

	if err := s.q.SetAppointmentStatus(ctx, tx, id, models.AppointmentCancelled); err != nil {
		return nil, nil, fmt.Errorf("cancel appointment %d: %w", id, err)
	}
	slotRow, err := s.q.ReleaseSlot(ctx, tx, row.SlotID)
	if err != nil {
		return nil, nil, fmt.Errorf("release slot %d: %w", row.SlotID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit cancel: %w", err)
	}

	appt := &models.Appointment{
		ID:          row.ID,
		PatientID:   row.PatientID,
		ProcedureID: row.ProcedureID,
		ResourceID:  row.ResourceID,
		SlotID:      row.SlotID,
		Start:       row.Start,
		End:         row.End,
		Status:      models.AppointmentCancelled,
		Notes:       row.Notes,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   time.Now().UTC(),
	}
	slot := &models.TimeSlot{
		ID:          slotRow.ID,
		ResourceID:  slotRow.ResourceID,
		Start:       slotRow.Start,
		End:         slotRow.End,
		IsAvailable: true,
	}
	return appt, slot, nil
}

func toSet(ids []int64) map[int64]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
