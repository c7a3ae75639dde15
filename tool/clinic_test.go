package tool

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GediminasPukys/clinic-voice-agent/clinic"
	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/session"
	"github.com/GediminasPukys/clinic-voice-agent/store"
)

type clinicFixture struct {
	store    *store.SQLiteStore
	registry *Registry
	session  *session.Context
}

func newClinicFixture(t *testing.T) *clinicFixture {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "clinic.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Seed(context.Background()))

	return &clinicFixture{
		store:    s,
		registry: MustNewRegistry(ClinicToolset(s)...),
		session:  session.NewContext("test-session"),
	}
}

// call resolves and invokes a catalog function the way the dispatcher would.
func (f *clinicFixture) call(t *testing.T, name string, args map[string]any) (any, error) {
	t.Helper()
	tl, err := f.registry.Resolve(name)
	require.NoError(t, err)
	tc := core.NewToolContext(context.Background(), f.session, core.NewID(), core.NewID(), nil)
	return tl.Call(tc, args)
}

// openSlot returns a real seeded open slot for the given doctor.
func (f *clinicFixture) openSlot(t *testing.T, doctorID int64) clinic.Slot {
	t.Helper()
	slots, err := f.store.AvailableSlots(context.Background(), store.SlotQuery{DoctorID: doctorID, Limit: 1})
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	return slots[0]
}

func TestCatalogOrder(t *testing.T) {
	f := newClinicFixture(t)

	names := make([]string, 0, f.registry.Len())
	for _, def := range f.registry.Definitions() {
		names = append(names, def.Name)
	}
	assert.Equal(t, []string{
		"lookup_patient",
		"create_patient",
		"list_all_doctors",
		"get_doctor_info",
		"get_specialties",
		"find_doctors_by_specialty",
		"get_available_slots",
		"schedule_appointment",
		"get_patient_appointments",
		"cancel_appointment",
		"get_current_patient_info",
	}, names)
}

func TestLookupThenCreateThenCurrentInfo(t *testing.T) {
	f := newClinicFixture(t)

	// A miss is a conversational prompt, not an error.
	out, err := f.call(t, "lookup_patient", map[string]any{"phone": "+37061111111"})
	require.NoError(t, err)
	assert.Equal(t, "No patient found with phone number +37061111111. Would you like to create a new patient record?", out)
	assert.Nil(t, f.session.CurrentPatient())

	out, err = f.call(t, "create_patient", map[string]any{
		"name":  "Ona Kazlauskienė",
		"phone": "+37061111111",
		"email": "ona@example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Successfully created new patient record for Ona Kazlauskienė")

	patient := f.session.CurrentPatient()
	require.NotNil(t, patient)
	assert.Equal(t, "Ona Kazlauskienė", patient.Name)

	out, err = f.call(t, "get_current_patient_info", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Name: Ona Kazlauskienė")
	assert.Contains(t, out.(string), "Phone: +37061111111")
}

func TestLookupExistingPatientSetsContext(t *testing.T) {
	f := newClinicFixture(t)

	_, err := f.store.CreatePatient(context.Background(), store.NewPatient{
		Name: "Petras Jonaitis", Phone: "+37062222222",
	})
	require.NoError(t, err)

	out, err := f.call(t, "lookup_patient", map[string]any{"phone": "+37062222222"})
	require.NoError(t, err)
	assert.Equal(t, "Found patient: Petras Jonaitis (Phone: +37062222222, Email: Not provided)", out)

	require.NotNil(t, f.session.CurrentPatient())
	assert.Equal(t, "Petras Jonaitis", f.session.CurrentPatient().Name)
}

func TestCreatePatientExistingPhoneReusesRecord(t *testing.T) {
	f := newClinicFixture(t)

	_, err := f.call(t, "create_patient", map[string]any{"name": "Ona", "phone": "+37063333333"})
	require.NoError(t, err)
	first := f.session.CurrentPatient()
	require.NotNil(t, first)

	out, err := f.call(t, "create_patient", map[string]any{"name": "Kita Ona", "phone": "+37063333333"})
	require.NoError(t, err)
	assert.Equal(t, "Patient already exists: Ona (Phone: +37063333333)", out)
	assert.Equal(t, first.ID, f.session.CurrentPatient().ID)
}

func TestDoctorCatalog(t *testing.T) {
	f := newClinicFixture(t)

	out, err := f.call(t, "list_all_doctors", map[string]any{})
	require.NoError(t, err)
	text := out.(string)
	assert.Contains(t, text, "Our clinic doctors:")
	assert.Contains(t, text, "Dr. Ieva Pukienė - Endocrinologist")
	assert.Contains(t, text, "Dr. Vytautas Bielskis - Diabetes Specialist")

	out, err = f.call(t, "get_specialties", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Available specialties at our clinic:")
	assert.Contains(t, out.(string), "Thyroid Specialist")

	out, err = f.call(t, "find_doctors_by_specialty", map[string]any{"specialty": "Diabetes Specialist"})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Dr. Vytautas Bielskis")

	out, err = f.call(t, "find_doctors_by_specialty", map[string]any{"specialty": "Cardiologist"})
	require.NoError(t, err)
	assert.Equal(t, "No doctors found with specialty: Cardiologist", out)
}

func TestGetDoctorInfo(t *testing.T) {
	f := newClinicFixture(t)

	doctors, err := f.store.ListDoctors(context.Background())
	require.NoError(t, err)
	doc := doctors[0]

	out, err := f.call(t, "get_doctor_info", map[string]any{"doctor_id": int(doc.ID)})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Name: "+doc.Name)
	assert.Contains(t, out.(string), "Available appointment times:")

	out, err = f.call(t, "get_doctor_info", map[string]any{"doctor_id": 9999})
	require.NoError(t, err)
	assert.Equal(t, "No doctor found with ID 9999", out)
}

func TestGetAvailableSlots(t *testing.T) {
	f := newClinicFixture(t)

	doctors, err := f.store.ListDoctors(context.Background())
	require.NoError(t, err)
	slot := f.openSlot(t, doctors[0].ID)

	out, err := f.call(t, "get_available_slots", map[string]any{
		"doctor_id": int(doctors[0].ID),
		"date":      slot.Date,
	})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Available appointment slots:")
	assert.Contains(t, out.(string), slot.Time)
}

func TestScheduleRequiresPatientContext(t *testing.T) {
	f := newClinicFixture(t)

	out, err := f.call(t, "schedule_appointment", map[string]any{
		"doctor_id": 1, "date": "2026-09-01", "time": "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "No patient selected. Please look up or create a patient first.", out)

	out, err = f.call(t, "get_patient_appointments", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "No patient selected. Please look up a patient first.", out)
}

func TestScheduleAndCancelFlow(t *testing.T) {
	f := newClinicFixture(t)

	_, err := f.call(t, "create_patient", map[string]any{"name": "Ona Kazlauskienė", "phone": "+37064444444"})
	require.NoError(t, err)

	doctors, err := f.store.ListDoctors(context.Background())
	require.NoError(t, err)
	slot := f.openSlot(t, doctors[0].ID)

	out, err := f.call(t, "schedule_appointment", map[string]any{
		"doctor_id": int(slot.DoctorID),
		"date":      slot.Date,
		"time":      slot.Time,
		"notes":     "first visit",
	})
	require.NoError(t, err)
	text := out.(string)
	assert.Contains(t, text, "Appointment confirmed!")
	assert.Contains(t, text, "Patient: Ona Kazlauskienė")
	assert.Contains(t, text, "Doctor: "+slot.DoctorName)
	assert.Contains(t, text, "Notes: first visit")

	out, err = f.call(t, "get_patient_appointments", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Appointments for Ona Kazlauskienė:")
	assert.Contains(t, out.(string), "Status: scheduled")

	// Booking the same slot again for anyone is now unavailable.
	_, err = f.call(t, "schedule_appointment", map[string]any{
		"doctor_id": int(slot.DoctorID),
		"date":      slot.Date,
		"time":      slot.Time,
	})
	require.Error(t, err)
	assert.Equal(t, core.ErrSlotUnavailable, core.Classify(err))

	appts, err := f.store.PatientAppointments(context.Background(), f.session.CurrentPatient().ID)
	require.NoError(t, err)
	require.Len(t, appts, 1)

	out, err = f.call(t, "cancel_appointment", map[string]any{"appointment_id": int(appts[0].ID)})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf(
		"Appointment %d has been successfully cancelled. The time slot is now available for other patients.",
		appts[0].ID), out)

	// The freed slot can be booked again.
	out, err = f.call(t, "schedule_appointment", map[string]any{
		"doctor_id": int(slot.DoctorID),
		"date":      slot.Date,
		"time":      slot.Time,
	})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Appointment confirmed!")

	// Cancelling twice reports the appointment as gone.
	_, err = f.call(t, "cancel_appointment", map[string]any{"appointment_id": int(appts[0].ID)})
	require.Error(t, err)
	assert.Equal(t, core.ErrNotFound, core.Classify(err))
}

func TestFunctionToolValidatesArguments(t *testing.T) {
	f := newClinicFixture(t)

	_, err := f.call(t, "lookup_patient", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, core.ErrValidation, core.Classify(err))

	_, err = f.call(t, "lookup_patient", map[string]any{"phone": 12345})
	require.Error(t, err)
	assert.Equal(t, core.ErrValidation, core.Classify(err))
}
