package scheduler

import (
	"context"
	"time"

	"clinic-scheduling/internal/models"
)

type mockCatalog struct {
	PendingProceduresFunc func(ctx context.Context, req ScheduleRequest) ([]ProcedureRequest, error)
	FreeSlotsFunc         func(ctx context.Context, from, to time.Time) ([]Slot, error)
}

func (m *mockCatalog) PendingProcedures(ctx context.Context, req ScheduleRequest) ([]ProcedureRequest, error) {
	return m.PendingProceduresFunc(ctx, req)
}

func (m *mockCatalog) FreeSlots(ctx context.Context, from, to time.Time) ([]Slot, error) {
	return m.FreeSlotsFunc(ctx, from, to)
}

type mockSink struct {
	CommitBatchFunc       func(ctx context.Context, appointments []*models.Appointment) error
	CancelAppointmentFunc func(ctx context.Context, id int64) (*models.Appointment, *models.TimeSlot, error)

	committed [][]*models.Appointment
}

func (m *mockSink) CommitBatch(ctx context.Context, appointments []*models.Appointment) error {
	m.committed = append(m.committed, appointments)
	if m.CommitBatchFunc != nil {
		return m.CommitBatchFunc(ctx, appointments)
	}
	return nil
}

func (m *mockSink) CancelAppointment(ctx context.Context, id int64) (*models.Appointment, *models.TimeSlot, error) {
	return m.CancelAppointmentFunc(ctx, id)
}

func staticCatalog(requests []ProcedureRequest, slots []Slot) *mockCatalog {
	return &mockCatalog{
		PendingProceduresFunc: func(context.Context, ScheduleRequest) ([]ProcedureRequest, error) {
			return requests, nil
		},
		FreeSlotsFunc: func(context.Context, time.Time, time.Time) ([]Slot, error) {
			return slots, nil
		},
	}
}
