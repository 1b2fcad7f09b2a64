package datagen

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinic-scheduling/internal/models"
	"clinic-scheduling/internal/store"
)

// Generator produces a plausible clinic dataset for demos and load
// testing. It is seedable so fixtures are reproducible.
type Generator struct {
	rng *rand.Rand
	now time.Time
}

func New(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now().UTC(),
	}
}

// Catalog data. ICD-10 and CPT entries cover the common outpatient
// cases; each CPT code names the resource type that can service it.

type diagnosisSeed struct {
	ICDCode     string
	Description string
	Severity    int
}

var sampleDiagnoses = []diagnosisSeed{
	{"I10", "Essential (primary) hypertension", 2},
	{"E11.9", "Type 2 diabetes mellitus without complications", 3},
	{"J45.909", "Unspecified asthma, uncomplicated", 3},
	{"M54.5", "Low back pain", 2},
	{"F41.9", "Anxiety disorder, unspecified", 2},
	{"F32.9", "Major depressive disorder, single episode, unspecified", 3},
	{"J02.9", "Acute pharyngitis, unspecified", 1},
	{"N39.0", "Urinary tract infection, site not specified", 2},
	{"K21.9", "Gastro-esophageal reflux disease without esophagitis", 2},
	{"R51", "Headache", 1},
	{"J06.9", "Acute upper respiratory infection, unspecified", 1},
	{"H66.90", "Otitis media, unspecified, unspecified ear", 1},
	{"L30.9", "Dermatitis, unspecified", 1},
	{"M25.50", "Pain in unspecified joint", 2},
	{"R10.9", "Unspecified abdominal pain", 2},
}

type cptSeed struct {
	Code            string
	Description     string
	DurationMinutes int
	Capability      string
}

var sampleCPTCodes = []cptSeed{
	{"99213", "Office/outpatient visit, established patient, 15 minutes", 15, "Exam Room"},
	{"99214", "Office/outpatient visit, established patient, 25 minutes", 25, "Exam Room"},
	{"99215", "Office/outpatient visit, established patient, 40 minutes", 40, "Consultation Room"},
	{"99203", "Office/outpatient visit, new patient, 30 minutes", 30, "Exam Room"},
	{"99204", "Office/outpatient visit, new patient, 45 minutes", 45, "Consultation Room"},
	{"99205", "Office/outpatient visit, new patient, 60 minutes", 60, "Consultation Room"},
	{"93000", "Electrocardiogram, routine, with interpretation", 20, "EKG Room"},
	{"71045", "X-ray, chest, single view", 15, "X-Ray Room"},
	{"71046", "X-ray, chest, 2 views", 20, "X-Ray Room"},
	{"80053", "Comprehensive metabolic panel", 10, "Lab"},
	{"85025", "Complete blood count (CBC)", 10, "Lab"},
	{"82607", "Vitamin B-12 blood test", 10, "Lab"},
	{"83036", "Hemoglobin A1C level", 10, "Lab"},
	{"80061", "Lipid panel", 10, "Lab"},
	{"96372", "Therapeutic, prophylactic, or diagnostic injection", 15, "Procedure Room"},
}

var resourceTypes = []string{
	"Exam Room",
	"Procedure Room",
	"X-Ray Room",
	"Lab",
	"EKG Room",
	"Consultation Room",
}

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard",
	"Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Carlos", "Maria",
	"Wei", "Fatima", "Ahmed", "Priya", "Kenji", "Amara",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
	"Wilson", "Anderson", "Nguyen", "Kim", "Patel", "Okafor", "Tanaka",
}

var insuranceProviders = []string{
	"Aetna", "Blue Cross Blue Shield", "Cigna", "UnitedHealthcare",
	"Humana", "Kaiser Permanente", "Anthem",
}

var streetNames = []string{
	"Oak", "Maple", "Cedar", "Elm", "Pine", "Washington", "Lake", "Hill",
}

var genders = []string{"Male", "Female", "Other"}

func (g *Generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

func (g *Generator) Patients(count int) []*models.Patient {
	out := make([]*models.Patient, 0, count)
	for i := 0; i < count; i++ {
		age := 18 + g.rng.Intn(73)
		dob := g.now.AddDate(-age, -g.rng.Intn(12), -g.rng.Intn(28))
		first := g.pick(firstNames)
		last := g.pick(lastNames)
		out = append(out, &models.Patient{
			FirstName:         first,
			LastName:          last,
			DateOfBirth:       dob,
			Gender:            g.pick(genders),
			PhoneNumber:       fmt.Sprintf("555-%03d-%04d", g.rng.Intn(1000), g.rng.Intn(10000)),
			Email:             fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), g.rng.Intn(100)),
			Address:           fmt.Sprintf("%d %s St", 1+g.rng.Intn(9999), g.pick(streetNames)),
			InsuranceProvider: g.pick(insuranceProviders),
			InsuranceID:       uuid.New().String(),
		})
	}
	return out
}

func (g *Generator) Diagnoses() []*models.Diagnosis {
	out := make([]*models.Diagnosis, 0, len(sampleDiagnoses))
	for _, d := range sampleDiagnoses {
		out = append(out, &models.Diagnosis{
			ICDCode:     d.ICDCode,
			Description: d.Description,
			Severity:    d.Severity,
		})
	}
	return out
}

func (g *Generator) CPTCodes() []*models.CPTCode {
	out := make([]*models.CPTCode, 0, len(sampleCPTCodes))
	for _, c := range sampleCPTCodes {
		out = append(out, &models.CPTCode{
			Code:            c.Code,
			Description:     c.Description,
			DurationMinutes: c.DurationMinutes,
			Capability:      c.Capability,
		})
	}
	return out
}

// Resources guarantees at least one resource per type so every CPT
// capability is serviceable, then fills the rest at random. Roughly one
// in ten is marked out of service.
func (g *Generator) Resources(count int) []*models.Resource {
	if count < len(resourceTypes) {
		count = len(resourceTypes)
	}
	out := make([]*models.Resource, 0, count)
	for i := 0; i < count; i++ {
		resourceType := resourceTypes[i%len(resourceTypes)]
		if i >= len(resourceTypes) {
			resourceType = g.pick(resourceTypes)
		}
		out = append(out, &models.Resource{
			Name:        fmt.Sprintf("%s %d", resourceType, i+1),
			Type:        resourceType,
			IsAvailable: g.rng.Float64() > 0.1,
		})
	}
	return out
}

// PatientDiagnoses links each patient to 1-3 diagnoses from the catalog.
func (g *Generator) PatientDiagnoses(patientCount, diagnosisCount int) []*models.PatientDiagnosis {
	var out []*models.PatientDiagnosis
	for patientID := int64(1); patientID <= int64(patientCount); patientID++ {
		n := 1 + g.rng.Intn(3)
		for _, idx := range g.rng.Perm(diagnosisCount)[:n] {
			out = append(out, &models.PatientDiagnosis{
				PatientID:     patientID,
				DiagnosisID:   int64(idx + 1),
				DiagnosedDate: g.now.AddDate(0, 0, -g.rng.Intn(365)),
			})
		}
	}
	return out
}

// PatientProcedures orders 0-2 procedures per diagnosis. Around a third
// of procedures carry preferred windows, morning or afternoon blocks over
// the next two weeks.
func (g *Generator) PatientProcedures(diagnoses []*models.PatientDiagnosis, cptCount int) []*models.PatientProcedure {
	var out []*models.PatientProcedure
	for _, pd := range diagnoses {
		for i := 0; i < g.rng.Intn(3); i++ {
			pp := &models.PatientProcedure{
				PatientID:   pd.PatientID,
				CPTCodeID:   int64(1 + g.rng.Intn(cptCount)),
				DiagnosisID: pd.DiagnosisID,
				OrderedDate: pd.DiagnosedDate.AddDate(0, 0, 1+g.rng.Intn(14)),
				Priority:    1 + g.rng.Intn(5),
			}
			if g.rng.Float64() < 0.35 {
				pp.PreferredWindows = g.preferredWindows()
			}
			out = append(out, pp)
		}
	}
	return out
}

func (g *Generator) preferredWindows() []models.TimeWindow {
	day := g.now.AddDate(0, 0, 1+g.rng.Intn(14)).Truncate(24 * time.Hour)
	startHour := 8
	if g.rng.Intn(2) == 1 {
		startHour = 13 // afternoon block
	}
	start := day.Add(time.Duration(startHour) * time.Hour)
	return []models.TimeWindow{{Start: start, End: start.Add(4 * time.Hour)}}
}

// TimeSlots produces 30-minute slots from 08:00 to 17:00 on weekdays for
// each resource, starting tomorrow. Around 80% begin available.
func (g *Generator) TimeSlots(resourceCount, daysAhead int) []*models.TimeSlot {
	var out []*models.TimeSlot
	for day := 1; day <= daysAhead; day++ {
		date := g.now.AddDate(0, 0, day).Truncate(24 * time.Hour)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for resourceID := int64(1); resourceID <= int64(resourceCount); resourceID++ {
			for hour := 8; hour < 17; hour++ {
				for _, minute := range []int{0, 30} {
					start := date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
					out = append(out, &models.TimeSlot{
						ResourceID:  resourceID,
						Start:       start,
						End:         start.Add(30 * time.Minute),
						IsAvailable: g.rng.Float64() > 0.2,
					})
				}
			}
		}
	}
	return out
}

// SeedCounts reports what Populate inserted.
type SeedCounts struct {
	Patients          int `json:"patients"`
	Diagnoses         int `json:"diagnoses"`
	CPTCodes          int `json:"cpt_codes"`
	Resources         int `json:"resources"`
	PatientDiagnoses  int `json:"patient_diagnoses"`
	PatientProcedures int `json:"patient_procedures"`
	TimeSlots         int `json:"time_slots"`
}

// Populate fills the store with a coherent dataset: catalog first, then
// patients, links and slots, so foreign keys line up with insertion
// order.
func (g *Generator) Populate(s *store.MemoryStore, patientCount, resourceCount, daysAhead int) (SeedCounts, error) {
	var counts SeedCounts

	for _, d := range g.Diagnoses() {
		s.CreateDiagnosis(d)
		counts.Diagnoses++
	}
	for _, c := range g.CPTCodes() {
		s.CreateCPTCode(c)
		counts.CPTCodes++
	}
	for _, p := range g.Patients(patientCount) {
		s.CreatePatient(p)
		counts.Patients++
	}
	resources := g.Resources(resourceCount)
	for _, r := range resources {
		s.CreateResource(r)
		counts.Resources++
	}

	links := g.PatientDiagnoses(patientCount, len(sampleDiagnoses))
	for _, pd := range links {
		s.CreatePatientDiagnosis(pd)
		counts.PatientDiagnoses++
	}
	for _, pp := range g.PatientProcedures(links, len(sampleCPTCodes)) {
		s.CreatePatientProcedure(pp)
		counts.PatientProcedures++
	}
	for _, slot := range g.TimeSlots(len(resources), daysAhead) {
		if _, err := s.CreateTimeSlot(slot); err != nil {
			return counts, err
		}
		counts.TimeSlots++
	}
	return counts, nil
}
