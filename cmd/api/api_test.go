package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-scheduling/internal/config"
	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/observability/metrics"
	"clinic-scheduling/internal/scheduler"
)

func testServer(t *testing.T) (*server, http.Handler) {
	t.Helper()
	cfg := &config.Config{Seed: config.SeedConfig{Patients: 5, Resources: 6, DaysAhead: 5}}
	reg := prometheus.NewRegistry()
	srv := newServer(cfg, zerolog.Nop(), metrics.New(reg))
	return srv, srv.routes(reg)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	_, h := testServer(t)
	rr := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestPatientLifecycle(t *testing.T) {
	_, h := testServer(t)

	rr := doJSON(t, h, http.MethodPost, "/patients", map[string]string{
		"first_name": "Ada", "last_name": "Nguyen", "email": "ada@example.com",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.Patient
	decodeInto(t, rr, &created)
	require.NotZero(t, created.ID)

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/patients/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPut, fmt.Sprintf("/patients/%d", created.ID), map[string]string{
		"phone_number": "555-000-1234",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var updated models.Patient
	decodeInto(t, rr, &updated)
	assert.Equal(t, "555-000-1234", updated.PhoneNumber)
	assert.Equal(t, "Ada", updated.FirstName, "partial update keeps unset fields")

	rr = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/patients/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, fmt.Sprintf("/patients/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreatePatientMissingName(t *testing.T) {
	_, h := testServer(t)
	rr := doJSON(t, h, http.MethodPost, "/patients", map[string]string{"first_name": "Ada"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCreateDiagnosisSeverityBounds(t *testing.T) {
	_, h := testServer(t)
	rr := doJSON(t, h, http.MethodPost, "/medical/diagnoses", map[string]any{
		"icd_code": "I10", "description": "Hypertension", "severity": 6,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCreatePatientProcedureChecksReferences(t *testing.T) {
	_, h := testServer(t)
	rr := doJSON(t, h, http.MethodPost, "/medical/patient-procedures", map[string]any{
		"patient_id": 42, "cpt_code_id": 1, "priority": 3,
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// setupClinic drives the CRUD endpoints to build a minimal schedulable
// dataset: one patient with one urgent procedure, one exam room with one
// fitting slot.
func setupClinic(t *testing.T, h http.Handler) (slotStart, slotEnd time.Time) {
	t.Helper()
	slotStart = time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC)
	slotEnd = slotStart.Add(30 * time.Minute)

	steps := []struct {
		path string
		body map[string]any
	}{
		{"/patients", map[string]any{"first_name": "Ada", "last_name": "Nguyen"}},
		{"/medical/diagnoses", map[string]any{"icd_code": "I10", "description": "Hypertension", "severity": 4}},
		{"/medical/cpt-codes", map[string]any{"code": "99213", "description": "Office visit", "duration_minutes": 30, "capability": "Exam Room"}},
		{"/resources", map[string]any{"name": "Exam 1", "type": "Exam Room", "is_available": true}},
		{"/time-slots", map[string]any{"resource_id": 1, "start": slotStart, "end": slotEnd, "is_available": true}},
		{"/medical/patient-procedures", map[string]any{"patient_id": 1, "cpt_code_id": 1, "diagnosis_id": 1, "priority": 5}},
	}
	for _, step := range steps {
		rr := doJSON(t, h, http.MethodPost, step.path, step.body)
		require.Equal(t, http.StatusCreated, rr.Code, "POST %s: %s", step.path, rr.Body.String())
	}
	return slotStart, slotEnd
}

func optimizeBody(start, end time.Time) map[string]any {
	return map[string]any{
		"start_date": start.Add(-time.Hour),
		"end_date":   end.Add(time.Hour),
	}
}

func TestOptimizeSchedulesProcedure(t *testing.T) {
	_, h := testServer(t)
	start, end := setupClinic(t, h)

	rr := doJSON(t, h, http.MethodPost, "/scheduling/optimize", optimizeBody(start, end))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp scheduler.ScheduleResponse
	decodeInto(t, rr, &resp)
	require.Len(t, resp.Appointments, 1)
	assert.Empty(t, resp.UnscheduledProcedures)
	assert.Equal(t, models.AppointmentScheduled, resp.Appointments[0].Status)
	assert.True(t, resp.Appointments[0].Start.Equal(start))
	assert.Positive(t, resp.OptimizationScore)

	// The slot is consumed; a second run finds nothing pending.
	rr = doJSON(t, h, http.MethodPost, "/scheduling/optimize", optimizeBody(start, end))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeInto(t, rr, &resp)
	assert.Empty(t, resp.Appointments)
	assert.Equal(t, "No procedures to schedule", resp.Message)
}

func TestOptimizeRejectsNegativeWeights(t *testing.T) {
	_, h := testServer(t)
	start, end := setupClinic(t, h)

	body := optimizeBody(start, end)
	body["weights"] = map[string]float64{"priority": -1}
	rr := doJSON(t, h, http.MethodPost, "/scheduling/optimize", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// The refused batch must not have scheduled anything.
	rr = doJSON(t, h, http.MethodGet, "/appointments", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var appts []models.Appointment
	decodeInto(t, rr, &appts)
	assert.Empty(t, appts)
}

func TestOptimizeRejectsInvertedDateRange(t *testing.T) {
	_, h := testServer(t)
	start, _ := setupClinic(t, h)

	rr := doJSON(t, h, http.MethodPost, "/scheduling/optimize", map[string]any{
		"start_date": start, "end_date": start.Add(-time.Hour),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCancelFreesSlotForNextBatch(t *testing.T) {
	_, h := testServer(t)
	start, end := setupClinic(t, h)

	rr := doJSON(t, h, http.MethodPost, "/scheduling/optimize", optimizeBody(start, end))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp scheduler.ScheduleResponse
	decodeInto(t, rr, &resp)
	require.Len(t, resp.Appointments, 1)
	apptID := resp.Appointments[0].ID

	rr = doJSON(t, h, http.MethodPost, fmt.Sprintf("/appointments/%d/cancel", apptID), nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var cancelled cancelResponse
	decodeInto(t, rr, &cancelled)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Appointment.Status)
	require.NotNil(t, cancelled.FreedSlot)
	assert.True(t, cancelled.FreedSlot.IsAvailable)

	// Cancelling again conflicts.
	rr = doJSON(t, h, http.MethodPost, fmt.Sprintf("/appointments/%d/cancel", apptID), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// The freed slot is assignable again.
	rr = doJSON(t, h, http.MethodPost, "/scheduling/optimize", optimizeBody(start, end))
	require.Equal(t, http.StatusOK, rr.Code)
	decodeInto(t, rr, &resp)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, cancelled.FreedSlot.ID, resp.Appointments[0].SlotID)
}

func TestCancelUnknownAppointment(t *testing.T) {
	_, h := testServer(t)
	rr := doJSON(t, h, http.MethodPost, "/appointments/99/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCompleteThenCancelConflicts(t *testing.T) {
	_, h := testServer(t)
	start, end := setupClinic(t, h)

	rr := doJSON(t, h, http.MethodPost, "/scheduling/optimize", optimizeBody(start, end))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp scheduler.ScheduleResponse
	decodeInto(t, rr, &resp)
	require.Len(t, resp.Appointments, 1)
	apptID := resp.Appointments[0].ID

	rr = doJSON(t, h, http.MethodPost, fmt.Sprintf("/appointments/%d/complete", apptID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPost, fmt.Sprintf("/appointments/%d/cancel", apptID), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUnscheduledCarriesReason(t *testing.T) {
	_, h := testServer(t)
	start, end := setupClinic(t, h)

	// A second procedure needs a capability no resource offers.
	rr := doJSON(t, h, http.MethodPost, "/medical/cpt-codes", map[string]any{
		"code": "70551", "description": "MRI brain", "duration_minutes": 45, "capability": "MRI Suite",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = doJSON(t, h, http.MethodPost, "/medical/patient-procedures", map[string]any{
		"patient_id": 1, "cpt_code_id": 2, "priority": 4,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/scheduling/optimize", optimizeBody(start, end))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp scheduler.ScheduleResponse
	decodeInto(t, rr, &resp)
	require.Len(t, resp.Appointments, 1)
	require.Len(t, resp.UnscheduledProcedures, 1)
	assert.Equal(t, "no free slot with matching capability", resp.UnscheduledProcedures[0].Reason)
}

func TestSeedPopulatesStore(t *testing.T) {
	_, h := testServer(t)

	rr := doJSON(t, h, http.MethodPost, "/admin/seed", map[string]any{
		"patients": 8, "resources": 6, "days_ahead": 5, "seed": 42,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var counts struct {
		Patients  int `json:"patients"`
		TimeSlots int `json:"time_slots"`
	}
	decodeInto(t, rr, &counts)
	assert.Equal(t, 8, counts.Patients)
	assert.Positive(t, counts.TimeSlots)

	rr = doJSON(t, h, http.MethodGet, "/patients", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var patients []models.Patient
	decodeInto(t, rr, &patients)
	assert.Len(t, patients, 8)
}

func TestOptimizePartialWeightsKeepDefaults(t *testing.T) {
	_, h := testServer(t)
	start, end := setupClinic(t, h)

	// A second, looser exam slot earlier in the day: with a single
	// weight overridden the duration axis must still count, so the
	// exact-fit slot wins.
	rr := doJSON(t, h, http.MethodPost, "/time-slots", map[string]any{
		"resource_id": 1, "start": start.Add(-2 * time.Hour), "end": start.Add(-time.Hour), "is_available": true,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	body := optimizeBody(start.Add(-3*time.Hour), end)
	body["weights"] = map[string]float64{"priority": 2}
	rr = doJSON(t, h, http.MethodPost, "/scheduling/optimize", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp scheduler.ScheduleResponse
	decodeInto(t, rr, &resp)
	require.Len(t, resp.Appointments, 1)
	assert.True(t, resp.Appointments[0].Start.Equal(start),
		"exact 30-minute fit beats the earlier 60-minute slot")
}

func TestSeedTwiceReplacesDataset(t *testing.T) {
	_, h := testServer(t)

	rr := doJSON(t, h, http.MethodPost, "/admin/seed", map[string]any{
		"patients": 10, "resources": 6, "days_ahead": 3, "seed": 1,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/admin/seed", map[string]any{
		"patients": 4, "resources": 6, "days_ahead": 3, "seed": 2,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/patients", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var patients []models.Patient
	decodeInto(t, rr, &patients)
	require.Len(t, patients, 4, "re-seeding replaces, not appends")
	assert.Equal(t, int64(1), patients[0].ID, "IDs restart with the new dataset")
}

func TestSeedConcurrentWithReads(t *testing.T) {
	_, h := testServer(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			doJSON(t, h, http.MethodPost, "/admin/seed", map[string]any{
				"patients": 3, "resources": 6, "days_ahead": 2, "seed": int64(i + 1),
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			doJSON(t, h, http.MethodGet, "/patients", nil)
			doJSON(t, h, http.MethodGet, "/resources", nil)
		}
	}()
	wg.Wait()

	rr := doJSON(t, h, http.MethodGet, "/patients", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := testServer(t)
	rr := doJSON(t, h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
