package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/scheduler"
)

var ErrNotFound = errors.New("not found")

// MemoryStore backs the API server in dev and tests. It implements the
// optimizer's CatalogProvider and PersistenceSink plus the CRUD surface
// the handlers need. One RWMutex guards all state; serializing a whole
// optimization batch against cancellations is the caller's job (the API
// holds a schedule lock across the run).
type MemoryStore struct {
	mu sync.RWMutex

	patients          []*models.Patient
	diagnoses         []*models.Diagnosis
	cptCodes          []*models.CPTCode
	patientDiagnoses  []*models.PatientDiagnosis
	patientProcedures []*models.PatientProcedure
	resources         []*models.Resource
	timeSlots         []*models.TimeSlot
	appointments      []*models.Appointment

	nextID map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: make(map[string]int64)}
}

func (s *MemoryStore) next(entity string) int64 {
	s.nextID[entity]++
	return s.nextID[entity]
}

// Reset empties the store in place and restarts ID allocation. In-place
// so handlers holding the store pointer never observe a swap.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients = nil
	s.diagnoses = nil
	s.cptCodes = nil
	s.patientDiagnoses = nil
	s.patientProcedures = nil
	s.resources = nil
	s.timeSlots = nil
	s.appointments = nil
	s.nextID = make(map[string]int64)
}

// Patients

func (s *MemoryStore) CreatePatient(p *models.Patient) *models.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.ID = s.next("patient")
	p.CreatedAt, p.UpdatedAt = now, now
	s.patients = append(s.patients, p)
	return p
}

// ListPatients filters by first or last name substring,
// case-insensitively, when name is non-empty.
func (s *MemoryStore) ListPatients(name string, offset, limit int) []*models.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Patient
	needle := strings.ToLower(name)
	for _, p := range s.patients {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.FirstName), needle) &&
			!strings.Contains(strings.ToLower(p.LastName), needle) {
			continue
		}
		out = append(out, p)
	}
	return paginate(out, offset, limit)
}

func (s *MemoryStore) GetPatient(id int64) (*models.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdatePatient(p *models.Patient) (*models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.patients {
		if existing.ID == p.ID {
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = time.Now().UTC()
			s.patients[i] = p
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) DeletePatient(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.patients {
		if p.ID == id {
			s.patients = append(s.patients[:i], s.patients[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Diagnoses and CPT codes

func (s *MemoryStore) CreateDiagnosis(d *models.Diagnosis) *models.Diagnosis {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.next("diagnosis")
	d.CreatedAt = time.Now().UTC()
	s.diagnoses = append(s.diagnoses, d)
	return d
}

func (s *MemoryStore) ListDiagnoses(icdCode string, severity int) []*models.Diagnosis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Diagnosis
	needle := strings.ToLower(icdCode)
	for _, d := range s.diagnoses {
		if needle != "" && !strings.Contains(strings.ToLower(d.ICDCode), needle) {
			continue
		}
		if severity != 0 && d.Severity != severity {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *MemoryStore) GetDiagnosis(id int64) (*models.Diagnosis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.diagnoses {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateCPTCode(c *models.CPTCode) *models.CPTCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.next("cpt_code")
	c.CreatedAt = time.Now().UTC()
	s.cptCodes = append(s.cptCodes, c)
	return c
}

func (s *MemoryStore) ListCPTCodes(code string) []*models.CPTCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.CPTCode
	needle := strings.ToLower(code)
	for _, c := range s.cptCodes {
		if needle != "" && !strings.Contains(strings.ToLower(c.Code), needle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *MemoryStore) GetCPTCode(id int64) (*models.CPTCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cptCodes {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrNotFound
}

// Patient links

func (s *MemoryStore) CreatePatientDiagnosis(pd *models.PatientDiagnosis) *models.PatientDiagnosis {
	s.mu.Lock()
	defer s.mu.Unlock()
	pd.ID = s.next("patient_diagnosis")
	pd.CreatedAt = time.Now().UTC()
	s.patientDiagnoses = append(s.patientDiagnoses, pd)
	return pd
}

func (s *MemoryStore) ListPatientDiagnoses(patientID int64) []*models.PatientDiagnosis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PatientDiagnosis
	for _, pd := range s.patientDiagnoses {
		if patientID != 0 && pd.PatientID != patientID {
			continue
		}
		out = append(out, pd)
	}
	return out
}

func (s *MemoryStore) CreatePatientProcedure(pp *models.PatientProcedure) *models.PatientProcedure {
	s.mu.Lock()
	defer s.mu.Unlock()
	pp.ID = s.next("patient_procedure")
	pp.CreatedAt = time.Now().UTC()
	s.patientProcedures = append(s.patientProcedures, pp)
	return pp
}

func (s *MemoryStore) ListPatientProcedures(patientID int64) []*models.PatientProcedure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PatientProcedure
	for _, pp := range s.patientProcedures {
		if patientID != 0 && pp.PatientID != patientID {
			continue
		}
		out = append(out, pp)
	}
	return out
}

// Resources and time slots

func (s *MemoryStore) CreateResource(r *models.Resource) *models.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	r.ID = s.next("resource")
	r.CreatedAt, r.UpdatedAt = now, now
	s.resources = append(s.resources, r)
	return r
}

func (s *MemoryStore) ListResources(resourceType string, available *bool) []*models.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Resource
	for _, r := range s.resources {
		if resourceType != "" && r.Type != resourceType {
			continue
		}
		if available != nil && r.IsAvailable != *available {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *MemoryStore) GetResource(id int64) (*models.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.resources {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateResource(r *models.Resource) (*models.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.resources {
		if existing.ID == r.ID {
			r.CreatedAt = existing.CreatedAt
			r.UpdatedAt = time.Now().UTC()
			s.resources[i] = r
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) DeleteResource(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.resources {
		if r.ID == id {
			s.resources = append(s.resources[:i], s.resources[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CreateTimeSlot(slot *models.TimeSlot) (*models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, r := range s.resources {
		if r.ID == slot.ResourceID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("resource %d: %w", slot.ResourceID, ErrNotFound)
	}
	now := time.Now().UTC()
	slot.ID = s.next("time_slot")
	slot.CreatedAt, slot.UpdatedAt = now, now
	s.timeSlots = append(s.timeSlots, slot)
	return slot, nil
}

func (s *MemoryStore) ListTimeSlots(from, to time.Time, available *bool) []*models.TimeSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TimeSlot
	for _, slot := range s.timeSlots {
		if !from.IsZero() && slot.Start.Before(from) {
			continue
		}
		if !to.IsZero() && slot.End.After(to) {
			continue
		}
		if available != nil && slot.IsAvailable != *available {
			continue
		}
		out = append(out, slot)
	}
	return out
}

// Appointments

type AppointmentFilter struct {
	PatientID  int64
	ResourceID int64
	From       time.Time
	To         time.Time
	Status     string
}

func (s *MemoryStore) ListAppointments(f AppointmentFilter) []*models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Appointment
	for _, a := range s.appointments {
		if f.PatientID != 0 && a.PatientID != f.PatientID {
			continue
		}
		if f.ResourceID != 0 && a.ResourceID != f.ResourceID {
			continue
		}
		if !f.From.IsZero() && a.Start.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.Start.After(f.To) {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *MemoryStore) GetAppointment(id int64) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

// CompleteAppointment marks a scheduled appointment completed. The slot
// stays consumed: the visit happened.
func (s *MemoryStore) CompleteAppointment(id int64) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.ID != id {
			continue
		}
		if a.Status != models.AppointmentScheduled {
			return nil, &scheduler.StateConflictError{Op: "complete appointment", ID: id, State: a.Status}
		}
		a.Status = models.AppointmentCompleted
		a.UpdatedAt = time.Now().UTC()
		return a, nil
	}
	return nil, ErrNotFound
}

// CatalogProvider

func (s *MemoryStore) PendingProcedures(ctx context.Context, req scheduler.ScheduleRequest) ([]scheduler.ProcedureRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cptByID := make(map[int64]*models.CPTCode, len(s.cptCodes))
	for _, c := range s.cptCodes {
		cptByID[c.ID] = c
	}
	severityByDiagnosis := make(map[int64]int, len(s.diagnoses))
	for _, d := range s.diagnoses {
		severityByDiagnosis[d.ID] = d.Severity
	}
	active := make(map[int64]bool)
	for _, a := range s.appointments {
		if a.Status == models.AppointmentScheduled {
			active[a.ProcedureID] = true
		}
	}

	var out []scheduler.ProcedureRequest
	for _, pp := range s.patientProcedures {
		if active[pp.ID] {
			continue
		}
		if len(req.PatientIDs) > 0 && !containsID(req.PatientIDs, pp.PatientID) {
			continue
		}
		if len(req.ProcedureIDs) > 0 && !containsID(req.ProcedureIDs, pp.ID) {
			continue
		}
		if req.PriorityThreshold != nil && pp.Priority < *req.PriorityThreshold {
			continue
		}
		cpt := cptByID[pp.CPTCodeID]
		if cpt == nil {
			// Malformed link; nothing schedulable without a CPT code.
			continue
		}
		severity := 3 // neutral when no diagnosis is linked
		if pp.DiagnosisID != 0 {
			if sev, ok := severityByDiagnosis[pp.DiagnosisID]; ok {
				severity = sev
			}
		}
		out = append(out, scheduler.ProcedureRequest{
			ID:              pp.ID,
			PatientID:       pp.PatientID,
			Capability:      cpt.Capability,
			DurationMinutes: cpt.DurationMinutes,
			Priority:        pp.Priority,
			Severity:        severity,
			Preferred:       pp.PreferredWindows,
		})
	}
	return out, nil
}

func (s *MemoryStore) FreeSlots(ctx context.Context, from, to time.Time) ([]scheduler.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resourceByID := make(map[int64]*models.Resource, len(s.resources))
	for _, r := range s.resources {
		resourceByID[r.ID] = r
	}

	var out []scheduler.Slot
	for _, slot := range s.timeSlots {
		if !slot.IsAvailable {
			continue
		}
		if slot.Start.Before(from) || slot.End.After(to) {
			continue
		}
		res := resourceByID[slot.ResourceID]
		if res == nil || !res.IsAvailable {
			continue
		}
		out = append(out, scheduler.Slot{
			ID:         slot.ID,
			ResourceID: slot.ResourceID,
			Capability: res.Type,
			Start:      slot.Start,
			End:        slot.End,
			Free:       true,
		})
	}
	return out, nil
}

// PersistenceSink

// CommitBatch inserts the batch's appointments and takes their slots out
// of the free pool. Conflicts are checked before any mutation so a
// refused batch leaves no partial state.
func (s *MemoryStore) CommitBatch(ctx context.Context, appointments []*models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slotByID := make(map[int64]*models.TimeSlot, len(s.timeSlots))
	for _, slot := range s.timeSlots {
		slotByID[slot.ID] = slot
	}
	for _, a := range appointments {
		slot := slotByID[a.SlotID]
		if slot == nil {
			return fmt.Errorf("slot %d: %w", a.SlotID, ErrNotFound)
		}
		if !slot.IsAvailable {
			return &scheduler.StateConflictError{Op: "assign slot", ID: slot.ID, State: "assigned"}
		}
	}

	now := time.Now().UTC()
	for _, a := range appointments {
		a.ID = s.next("appointment")
		slot := slotByID[a.SlotID]
		slot.IsAvailable = false
		slot.UpdatedAt = now
		s.appointments = append(s.appointments, a)
	}
	return nil
}

// CancelAppointment transitions scheduled -> cancelled and returns the
// bound slot to the free pool, atomically under the store lock.
func (s *MemoryStore) CancelAppointment(ctx context.Context, id int64) (*models.Appointment, *models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var appt *models.Appointment
	for _, a := range s.appointments {
		if a.ID == id {
			appt = a
			break
		}
	}
	if appt == nil {
		return nil, nil, ErrNotFound
	}
	if appt.Status != models.AppointmentScheduled {
		return nil, nil, &scheduler.StateConflictError{Op: "cancel appointment", ID: id, State: appt.Status}
	}

	now := time.Now().UTC()
	appt.Status = models.AppointmentCancelled
	appt.UpdatedAt = now

	var freed *models.TimeSlot
	for _, slot := range s.timeSlots {
		if slot.ID == appt.SlotID {
			slot.IsAvailable = true
			slot.UpdatedAt = now
			freed = slot
			break
		}
	}
	return appt, freed, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func paginate[T any](in []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
