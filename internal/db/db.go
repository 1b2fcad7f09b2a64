package db

import (
	"context"
	"database/sql"
	"time"
)

// Queries wraps the raw database handle with the typed queries the batch
// engine needs. Row structs mirror the table layout one to one; mapping
// onto internal/models happens in the store layer.
type Queries struct {
	db *sql.DB
}

func New(conn *sql.DB) *Queries {
	return &Queries{db: conn}
}

// DB exposes the underlying handle for transaction control.
func (q *Queries) DB() *sql.DB {
	return q.db
}

type PendingProcedureRow struct {
	ID               int64
	PatientID        int64
	CPTCodeID        int64
	DiagnosisID      sql.NullInt64
	OrderedDate      time.Time
	Priority         int
	PreferredWindows []byte // JSONB, array of {start, end}
	DurationMinutes  int
	Capability       string
	Severity         sql.NullInt64
}

type FreeSlotRow struct {
	ID         int64
	ResourceID int64
	Start      time.Time
	End        time.Time
	Capability string
}

// ListPendingProcedures returns every procedure without an active
// appointment, joined with its CPT code and, when linked, the diagnosis
// severity.
func (q *Queries) ListPendingProcedures(ctx context.Context) ([]PendingProcedureRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT pp.id, pp.patient_id, pp.cpt_code_id, pp.diagnosis_id,
		       pp.ordered_date, pp.priority, pp.preferred_windows,
		       c.duration_minutes, c.capability, d.severity
		FROM patient_procedures pp
		JOIN cpt_codes c ON c.id = pp.cpt_code_id
		LEFT JOIN diagnoses d ON d.id = pp.diagnosis_id
		WHERE NOT EXISTS (
			SELECT 1 FROM appointments a
			WHERE a.procedure_id = pp.id AND a.status = 'scheduled'
		)
		ORDER BY pp.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingProcedureRow
	for rows.Next() {
		var r PendingProcedureRow
		if err := rows.Scan(
			&r.ID, &r.PatientID, &r.CPTCodeID, &r.DiagnosisID,
			&r.OrderedDate, &r.Priority, &r.PreferredWindows,
			&r.DurationMinutes, &r.Capability, &r.Severity,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListFreeSlots returns the available slots of available resources whose
// span falls fully inside [from, to].
func (q *Queries) ListFreeSlots(ctx context.Context, from, to time.Time) ([]FreeSlotRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT s.id, s.resource_id, s.start_at, s.end_at, r.type
		FROM time_slots s
		JOIN resources r ON r.id = s.resource_id
		WHERE s.is_available = true AND r.is_available = true
		  AND s.start_at >= $1 AND s.end_at <= $2
		ORDER BY s.start_at, s.resource_id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FreeSlotRow
	for rows.Next() {
		var r FreeSlotRow
		if err := rows.Scan(&r.ID, &r.ResourceID, &r.Start, &r.End, &r.Capability); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimSlot takes a free slot out of the pool. Returns false when the
// slot was already consumed, which refuses the batch upstream.
func (q *Queries) ClaimSlot(ctx context.Context, tx *sql.Tx, slotID int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE time_slots
		SET is_available = false, updated_at = now()
		WHERE id = $1 AND is_available = true`, slotID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseSlot returns a slot to the pool and reports its current state.
func (q *Queries) ReleaseSlot(ctx context.Context, tx *sql.Tx, slotID int64) (FreeSlotRow, error) {
	var r FreeSlotRow
	err := tx.QueryRowContext(ctx, `
		UPDATE time_slots
		SET is_available = true, updated_at = now()
		WHERE id = $1
		RETURNING id, resource_id, start_at, end_at, ''`, slotID).
		Scan(&r.ID, &r.ResourceID, &r.Start, &r.End, &r.Capability)
	return r, err
}

type AppointmentRow struct {
	ID          int64
	PatientID   int64
	ProcedureID int64
	ResourceID  int64
	SlotID      int64
	Start       time.Time
	End         time.Time
	Status      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (q *Queries) InsertAppointment(ctx context.Context, tx *sql.Tx, a AppointmentRow) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO appointments
			(patient_id, procedure_id, resource_id, slot_id,
			 start_at, end_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id`,
		a.PatientID, a.ProcedureID, a.ResourceID, a.SlotID,
		a.Start, a.End, a.Status, a.Notes).Scan(&id)
	return id, err
}

func (q *Queries) GetAppointmentForUpdate(ctx context.Context, tx *sql.Tx, id int64) (AppointmentRow, error) {
	var a AppointmentRow
	err := tx.QueryRowContext(ctx, `
		SELECT id, patient_id, procedure_id, resource_id, slot_id,
		       start_at, end_at, status, notes, created_at, updated_at
		FROM appointments
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&a.ID, &a.PatientID, &a.ProcedureID, &a.ResourceID, &a.SlotID,
		&a.Start, &a.End, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (q *Queries) SetAppointmentStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	return err
}
