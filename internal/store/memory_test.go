package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/scheduler"
)

func day(hour int) time.Time {
	return time.Date(2026, 9, 14, hour, 0, 0, 0, time.UTC)
}

// seedClinic builds a store with one patient, two CPT codes, a diagnosis
// and two resources with one morning slot each.
func seedClinic(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()

	s.CreatePatient(&models.Patient{FirstName: "Ada", LastName: "Nguyen"})
	s.CreateDiagnosis(&models.Diagnosis{ICDCode: "I10", Description: "Essential hypertension", Severity: 4})
	s.CreateCPTCode(&models.CPTCode{Code: "99213", Description: "Office visit", DurationMinutes: 30, Capability: "Exam Room"})
	s.CreateCPTCode(&models.CPTCode{Code: "71045", Description: "Chest X-ray", DurationMinutes: 30, Capability: "X-Ray Room"})

	s.CreateResource(&models.Resource{Name: "Exam 1", Type: "Exam Room", IsAvailable: true})
	s.CreateResource(&models.Resource{Name: "X-Ray 1", Type: "X-Ray Room", IsAvailable: true})

	_, err := s.CreateTimeSlot(&models.TimeSlot{ResourceID: 1, Start: day(9), End: day(10), IsAvailable: true})
	require.NoError(t, err)
	_, err = s.CreateTimeSlot(&models.TimeSlot{ResourceID: 2, Start: day(9), End: day(10), IsAvailable: true})
	require.NoError(t, err)
	return s
}

func TestPatientCRUD(t *testing.T) {
	s := NewMemoryStore()
	p := s.CreatePatient(&models.Patient{FirstName: "Ada", LastName: "Nguyen"})
	require.Equal(t, int64(1), p.ID)

	got, err := s.GetPatient(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)

	got.Email = "ada@example.com"
	updated, err := s.UpdatePatient(got)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	require.NoError(t, s.DeletePatient(p.ID))
	_, err = s.GetPatient(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeletePatient(p.ID), ErrNotFound)
}

func TestListPatientsNameFilter(t *testing.T) {
	s := NewMemoryStore()
	s.CreatePatient(&models.Patient{FirstName: "Ada", LastName: "Nguyen"})
	s.CreatePatient(&models.Patient{FirstName: "Grace", LastName: "Okafor"})
	s.CreatePatient(&models.Patient{FirstName: "Adaeze", LastName: "Bell"})

	got := s.ListPatients("ada", 0, 0)
	require.Len(t, got, 2)

	got = s.ListPatients("", 1, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Grace", got[0].FirstName)
}

func TestPendingProceduresJoinsCatalog(t *testing.T) {
	s := seedClinic(t)
	s.CreatePatientProcedure(&models.PatientProcedure{PatientID: 1, CPTCodeID: 1, DiagnosisID: 1, Priority: 5})
	s.CreatePatientProcedure(&models.PatientProcedure{PatientID: 1, CPTCodeID: 2, Priority: 2})

	got, err := s.PendingProcedures(context.Background(), scheduler.ScheduleRequest{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Exam Room", got[0].Capability)
	assert.Equal(t, 30, got[0].DurationMinutes)
	assert.Equal(t, 4, got[0].Severity, "severity comes from the linked diagnosis")
	assert.Equal(t, 3, got[1].Severity, "unlinked procedures read as neutral severity")
}

func TestPendingProceduresFilters(t *testing.T) {
	s := seedClinic(t)
	s.CreatePatient(&models.Patient{FirstName: "Grace", LastName: "Okafor"})
	s.CreatePatientProcedure(&models.PatientProcedure{PatientID: 1, CPTCodeID: 1, Priority: 5})
	s.CreatePatientProcedure(&models.PatientProcedure{PatientID: 2, CPTCodeID: 1, Priority: 1})

	threshold := 3
	got, err := s.PendingProcedures(context.Background(), scheduler.ScheduleRequest{PriorityThreshold: &threshold})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].PatientID)

	got, err = s.PendingProcedures(context.Background(), scheduler.ScheduleRequest{PatientIDs: []int64{2}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].PatientID)

	got, err = s.PendingProcedures(context.Background(), scheduler.ScheduleRequest{ProcedureIDs: []int64{1}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestPendingProceduresSkipsActivelyScheduled(t *testing.T) {
	s := seedClinic(t)
	s.CreatePatientProcedure(&models.PatientProcedure{PatientID: 1, CPTCodeID: 1, Priority: 5})

	err := s.CommitBatch(context.Background(), []*models.Appointment{{
		PatientID: 1, ProcedureID: 1, ResourceID: 1, SlotID: 1,
		Start: day(9), End: day(10), Status: models.AppointmentScheduled,
	}})
	require.NoError(t, err)

	got, err := s.PendingProcedures(context.Background(), scheduler.ScheduleRequest{})
	require.NoError(t, err)
	assert.Empty(t, got, "a procedure with an active appointment is not pending")
}

func TestFreeSlotsCarriesResourceCapability(t *testing.T) {
	s := seedClinic(t)

	slots, err := s.FreeSlots(context.Background(), day(0), day(23))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "Exam Room", slots[0].Capability)
	assert.Equal(t, "X-Ray Room", slots[1].Capability)
	for _, slot := range slots {
		assert.True(t, slot.Free)
	}
}

func TestFreeSlotsExcludesUnavailableResource(t *testing.T) {
	s := seedClinic(t)
	r, err := s.GetResource(2)
	require.NoError(t, err)
	r.IsAvailable = false
	_, err = s.UpdateResource(r)
	require.NoError(t, err)

	slots, err := s.FreeSlots(context.Background(), day(0), day(23))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, int64(1), slots[0].ResourceID)
}

func TestCommitBatchRefusesConsumedSlot(t *testing.T) {
	s := seedClinic(t)
	appt := func() *models.Appointment {
		return &models.Appointment{
			PatientID: 1, ProcedureID: 1, ResourceID: 1, SlotID: 1,
			Start: day(9), End: day(10), Status: models.AppointmentScheduled,
		}
	}
	require.NoError(t, s.CommitBatch(context.Background(), []*models.Appointment{appt()}))

	err := s.CommitBatch(context.Background(), []*models.Appointment{appt()})
	var conflict *scheduler.StateConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(1), conflict.ID)
	assert.Len(t, s.ListAppointments(AppointmentFilter{}), 1, "refused batch leaves no partial state")
}

func TestCancelAppointmentFreesSlot(t *testing.T) {
	s := seedClinic(t)
	require.NoError(t, s.CommitBatch(context.Background(), []*models.Appointment{{
		PatientID: 1, ProcedureID: 1, ResourceID: 1, SlotID: 1,
		Start: day(9), End: day(10), Status: models.AppointmentScheduled,
	}}))

	appt, slot, err := s.CancelAppointment(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, appt.Status)
	require.NotNil(t, slot)
	assert.True(t, slot.IsAvailable)

	// Cancelling twice is a state conflict, not idempotent.
	_, _, err = s.CancelAppointment(context.Background(), 1)
	var conflict *scheduler.StateConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.AppointmentCancelled, conflict.State)

	_, _, err = s.CancelAppointment(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteAppointment(t *testing.T) {
	s := seedClinic(t)
	require.NoError(t, s.CommitBatch(context.Background(), []*models.Appointment{{
		PatientID: 1, ProcedureID: 1, ResourceID: 1, SlotID: 1,
		Start: day(9), End: day(10), Status: models.AppointmentScheduled,
	}}))

	appt, err := s.CompleteAppointment(1)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, appt.Status)

	// The slot stays consumed after completion.
	slots, err := s.FreeSlots(context.Background(), day(0), day(23))
	require.NoError(t, err)
	for _, slot := range slots {
		assert.NotEqual(t, int64(1), slot.ID)
	}

	_, _, err = s.CancelAppointment(context.Background(), 1)
	var conflict *scheduler.StateConflictError
	require.True(t, errors.As(err, &conflict))
}

func TestResetClearsStoreAndRestartsIDs(t *testing.T) {
	s := seedClinic(t)
	require.NoError(t, s.CommitBatch(context.Background(), []*models.Appointment{{
		PatientID: 1, ProcedureID: 1, ResourceID: 1, SlotID: 1,
		Start: day(9), End: day(10), Status: models.AppointmentScheduled,
	}}))

	s.Reset()

	assert.Empty(t, s.ListPatients("", 0, 0))
	assert.Empty(t, s.ListResources("", nil))
	assert.Empty(t, s.ListAppointments(AppointmentFilter{}))
	slots, err := s.FreeSlots(context.Background(), day(0), day(23))
	require.NoError(t, err)
	assert.Empty(t, slots)

	p := s.CreatePatient(&models.Patient{FirstName: "Grace", LastName: "Okafor"})
	assert.Equal(t, int64(1), p.ID, "ID allocation restarts after reset")
}

func TestCreateTimeSlotUnknownResource(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.CreateTimeSlot(&models.TimeSlot{ResourceID: 42, Start: day(9), End: day(10)})
	assert.ErrorIs(t, err, ErrNotFound)
}
