package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GediminasPukys/clinic-voice-agent/clinic"
	"github.com/GediminasPukys/clinic-voice-agent/core"
)

// seedStart pins the generated slot window to a known Monday.
var seedStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "clinic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newSeededStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.seedFrom(context.Background(), seedStart, defaultRoster))
	return s
}

func createPatient(t *testing.T, s *SQLiteStore, name, phone string) *clinic.Patient {
	t.Helper()
	p, err := s.CreatePatient(context.Background(), NewPatient{Name: name, Phone: phone})
	require.NoError(t, err)
	return p
}

func TestPatientRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreatePatient(ctx, NewPatient{
		Name:        "Ona Kazlauskienė",
		Phone:       "+37060000001",
		Email:       "ona@example.com",
		DateOfBirth: "1985-04-12",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := s.FindPatientByPhone(ctx, "+37060000001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Ona Kazlauskienė", found.Name)
	assert.Equal(t, "ona@example.com", found.Email)
	assert.Equal(t, "1985-04-12", found.DateOfBirth)
}

func TestFindPatientMissIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	p, err := s.FindPatientByPhone(context.Background(), "+37069999999")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestCreatePatientDuplicatePhone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createPatient(t, s, "Ona Kazlauskienė", "+37060000001")

	_, err := s.CreatePatient(ctx, NewPatient{Name: "Kita Ona", Phone: "+37060000001"})
	require.Error(t, err)
	assert.Equal(t, core.ErrConflict, core.Classify(err))
}

func TestSeedRoster(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	require.Len(t, doctors, 4)

	// Ordered by name; each doctor carries specialties and a preview.
	assert.Equal(t, "Dr. Giedrė Rimkutė", doctors[0].Name)
	assert.ElementsMatch(t, []string{"Endocrinologist", "Thyroid Specialist"}, doctors[0].Specialties)
	assert.NotEmpty(t, doctors[0].NextAvailable)

	specialties, err := s.ListSpecialties(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Diabetes Specialist", "Endocrinologist", "Thyroid Specialist"}, specialties)

	endos, err := s.FindDoctorsBySpecialty(ctx, "Endocrinologist")
	require.NoError(t, err)
	assert.Len(t, endos, 3)
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, s.seedFrom(ctx, seedStart, defaultRoster))

	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	assert.Len(t, doctors, 4)
}

func TestAvailableSlots(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	doc := doctors[0]

	// Weekday slots run hourly 08:00 through 16:00.
	slots, err := s.AvailableSlots(ctx, SlotQuery{DoctorID: doc.ID, Date: "2026-03-02"})
	require.NoError(t, err)
	require.Len(t, slots, 9)
	assert.Equal(t, "08:00", slots[0].Time)
	assert.Equal(t, "16:00", slots[8].Time)
	for _, sl := range slots {
		assert.Equal(t, clinic.SlotOpen, sl.Status)
		assert.Equal(t, doc.Name, sl.DoctorName)
	}

	// No slots generated on weekends.
	weekend, err := s.AvailableSlots(ctx, SlotQuery{DoctorID: doc.ID, Date: "2026-03-07"})
	require.NoError(t, err)
	assert.Empty(t, weekend)

	// Limit caps the result.
	limited, err := s.AvailableSlots(ctx, SlotQuery{DoctorID: doc.ID, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, limited, 3)
}

func TestBookAppointment(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	patient := createPatient(t, s, "Ona Kazlauskienė", "+37060000001")
	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	doc := doctors[0]

	slot, err := s.FindOpenSlot(ctx, doc.ID, "2026-03-02", "10:00")
	require.NoError(t, err)
	require.NotNil(t, slot)

	appt, err := s.BookAppointment(ctx, patient.ID, slot.ID, "first visit")
	require.NoError(t, err)
	assert.Equal(t, clinic.AppointmentScheduled, appt.Status)
	assert.Equal(t, doc.Name, appt.DoctorName)
	assert.Equal(t, "2026-03-02", appt.Date)
	assert.Equal(t, "10:00", appt.Time)

	// The slot is no longer open.
	gone, err := s.FindOpenSlot(ctx, doc.ID, "2026-03-02", "10:00")
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Rebooking the same slot fails with the availability error.
	_, err = s.BookAppointment(ctx, patient.ID, slot.ID, "")
	require.Error(t, err)
	assert.Equal(t, core.ErrSlotUnavailable, core.Classify(err))
}

func TestBookAppointmentRaceAdmitsOneWinner(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	p1 := createPatient(t, s, "Ona Kazlauskienė", "+37060000001")
	p2 := createPatient(t, s, "Petras Jonaitis", "+37060000002")

	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	slot, err := s.FindOpenSlot(ctx, doctors[0].ID, "2026-03-03", "09:00")
	require.NoError(t, err)
	require.NotNil(t, slot)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pid := range []int64{p1.ID, p2.ID} {
		wg.Add(1)
		go func(i int, pid int64) {
			defer wg.Done()
			_, errs[i] = s.BookAppointment(ctx, pid, slot.ID, "")
		}(i, pid)
	}
	wg.Wait()

	var winners, losers int
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		losers++
		assert.Equal(t, core.ErrSlotUnavailable, core.Classify(err))
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)
}

func TestCancelAppointmentRaceAdmitsOneWinner(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	patient := createPatient(t, s, "Ona Kazlauskienė", "+37060000001")
	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	slot, err := s.FindOpenSlot(ctx, doctors[0].ID, "2026-03-05", "13:00")
	require.NoError(t, err)
	require.NotNil(t, slot)

	appt, err := s.BookAppointment(ctx, patient.ID, slot.ID, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CancelAppointment(ctx, appt.ID)
		}(i)
	}
	wg.Wait()

	var winners, losers int
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		losers++
		assert.Equal(t, core.ErrNotFound, core.Classify(err))
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)

	// The slot reopened exactly once.
	reopened, err := s.FindOpenSlot(ctx, doctors[0].ID, "2026-03-05", "13:00")
	require.NoError(t, err)
	assert.NotNil(t, reopened)
}

func TestPatientAppointments(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	patient := createPatient(t, s, "Ona Kazlauskienė", "+37060000001")

	appts, err := s.PatientAppointments(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, appts)

	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	slot, err := s.FindOpenSlot(ctx, doctors[0].ID, "2026-03-02", "11:00")
	require.NoError(t, err)
	require.NotNil(t, slot)

	booked, err := s.BookAppointment(ctx, patient.ID, slot.ID, "")
	require.NoError(t, err)

	appts, err = s.PatientAppointments(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, booked.ID, appts[0].ID)
	assert.Equal(t, clinic.AppointmentScheduled, appts[0].Status)

	// A multi-specialty doctor shows every specialty, alphabetized.
	assert.Equal(t, "Endocrinologist, Thyroid Specialist", appts[0].Specialty)
}

func TestCancelAppointment(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	patient := createPatient(t, s, "Ona Kazlauskienė", "+37060000001")
	doctors, err := s.ListDoctors(ctx)
	require.NoError(t, err)
	slot, err := s.FindOpenSlot(ctx, doctors[0].ID, "2026-03-04", "14:00")
	require.NoError(t, err)
	require.NotNil(t, slot)

	appt, err := s.BookAppointment(ctx, patient.ID, slot.ID, "")
	require.NoError(t, err)

	require.NoError(t, s.CancelAppointment(ctx, appt.ID))

	// The slot reopens atomically with the cancellation.
	reopened, err := s.FindOpenSlot(ctx, doctors[0].ID, "2026-03-04", "14:00")
	require.NoError(t, err)
	assert.NotNil(t, reopened)

	// The record survives with a cancelled status.
	appts, err := s.PatientAppointments(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, clinic.AppointmentCancelled, appts[0].Status)

	// A second cancel reports the appointment as gone.
	err = s.CancelAppointment(ctx, appt.ID)
	require.Error(t, err)
	assert.Equal(t, core.ErrNotFound, core.Classify(err))
}

func TestCancelUnknownAppointment(t *testing.T) {
	s := newSeededStore(t)

	err := s.CancelAppointment(context.Background(), 999999)
	require.Error(t, err)

	var derr *core.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, core.ErrNotFound, derr.Kind)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
