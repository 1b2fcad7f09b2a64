package scheduler

import (
	"context"
	"time"

	"clinic-scheduling/internal/models"
)

// CatalogProvider supplies the batch snapshot: pending procedure requests
// scoped by a ScheduleRequest and the pool of free time slots in a date
// range.
type CatalogProvider interface {
	PendingProcedures(ctx context.Context, req ScheduleRequest) ([]ProcedureRequest, error)
	FreeSlots(ctx context.Context, from, to time.Time) ([]Slot, error)
}

// PersistenceSink durably records committed assignments and supports
// cancellation, which returns the underlying slot to the free pool.
type PersistenceSink interface {
	CommitBatch(ctx context.Context, appointments []*models.Appointment) error
	CancelAppointment(ctx context.Context, appointmentID int64) (*models.Appointment, *models.TimeSlot, error)
}
