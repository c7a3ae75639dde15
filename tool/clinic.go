package tool

import (
	"fmt"
	"strings"

	"github.com/GediminasPukys/clinic-voice-agent/clinic"
	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/store"
)

// ClinicToolset builds the full catalog of clinic operations bound to the
// given store, in the canonical export order. Payloads are phrased for a
// voice model to relay verbally.
func ClinicToolset(st store.Store) []Tool {
	return []Tool{
		newLookupPatient(st),
		newCreatePatient(st),
		newListAllDoctors(st),
		newGetDoctorInfo(st),
		newGetSpecialties(st),
		newFindDoctorsBySpecialty(st),
		newGetAvailableSlots(st),
		newScheduleAppointment(st),
		newGetPatientAppointments(st),
		newCancelAppointment(st),
		newGetCurrentPatientInfo(),
	}
}

func newLookupPatient(st store.Store) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"phone": map[string]any{
				"type":        "string",
				"description": "The patient's phone number (e.g. +37061234567)",
			},
		},
		"required": []string{"phone"},
	}
	return NewFunctionTool(
		"lookup_patient",
		"Look up a patient by their phone number",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			phone := argString(args, "phone")

			patient, err := st.FindPatientByPhone(tc.Context(), phone)
			if err != nil {
				return nil, err
			}
			if patient == nil {
				tc.Session().SetCurrentPatient(nil)
				return fmt.Sprintf("No patient found with phone number %s. Would you like to create a new patient record?", phone), nil
			}

			tc.Session().SetCurrentPatient(patient)
			return fmt.Sprintf("Found patient: %s (Phone: %s, Email: %s)",
				patient.Name, patient.Phone, orNotProvided(patient.Email)), nil
		},
	)
}

func newCreatePatient(st store.Store) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "The patient's full name",
			},
			"phone": map[string]any{
				"type":        "string",
				"description": "The patient's phone number",
			},
			"email": map[string]any{
				"type":        "string",
				"description": "The patient's email address (optional)",
			},
		},
		"required": []string{"name", "phone"},
	}
	return NewFunctionTool(
		"create_patient",
		"Create a new patient record in the system",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			name := argString(args, "name")
			phone := argString(args, "phone")
			email := argString(args, "email")

			existing, err := st.FindPatientByPhone(tc.Context(), phone)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				tc.Session().SetCurrentPatient(existing)
				return fmt.Sprintf("Patient already exists: %s (Phone: %s)", existing.Name, existing.Phone), nil
			}

			patient, err := st.CreatePatient(tc.Context(), store.NewPatient{Name: name, Phone: phone, Email: email})
			if err != nil {
				return nil, err
			}

			tc.Session().SetCurrentPatient(patient)
			return fmt.Sprintf("Successfully created new patient record for %s (ID: %d, Phone: %s)",
				patient.Name, patient.ID, patient.Phone), nil
		},
	)
}

func newListAllDoctors(st store.Store) Tool {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	return NewFunctionTool(
		"list_all_doctors",
		"Get a list of all doctors at the clinic",
		schema,
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			doctors, err := st.ListDoctors(tc.Context())
			if err != nil {
				return nil, err
			}
			if len(doctors) == 0 {
				return "No doctors found in the system.", nil
			}

			var b strings.Builder
			b.WriteString("Our clinic doctors:\n\n")
			for _, d := range doctors {
				writeDoctorLine(&b, d)
			}
			return b.String(), nil
		},
	)
}

func newGetDoctorInfo(st store.Store) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"doctor_id": map[string]any{
				"type":        "integer",
				"description": "The doctor's ID number",
			},
		},
		"required": []string{"doctor_id"},
	}
	return NewFunctionTool(
		"get_doctor_info",
		"Get detailed information about a specific doctor",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			doctorID := argInt64(args, "doctor_id")

			doctor, err := st.GetDoctor(tc.Context(), doctorID)
			if err != nil {
				return nil, err
			}
			if doctor == nil {
				return fmt.Sprintf("No doctor found with ID %d", doctorID), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Doctor Information:\nName: %s\nSpecialty: %s\n",
				doctor.Name, strings.Join(doctor.Specialties, ", "))
			b.WriteString("\nAvailable appointment times:\n")
			if len(doctor.NextAvailable) == 0 {
				b.WriteString("  No available slots at this time.\n")
			}
			for _, slot := range doctor.NextAvailable {
				fmt.Fprintf(&b, "  • %s\n", slot)
			}
			return b.String(), nil
		},
	)
}

func newGetSpecialties(st store.Store) Tool {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	return NewFunctionTool(
		"get_specialties",
		"Get all available medical specialties at the clinic",
		schema,
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			specialties, err := st.ListSpecialties(tc.Context())
			if err != nil {
				return nil, err
			}
			if len(specialties) == 0 {
				return "No specialties found in the system.", nil
			}
			return "Available specialties at our clinic: " + strings.Join(specialties, ", "), nil
		},
	)
}

func newFindDoctorsBySpecialty(st store.Store) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"specialty": map[string]any{
				"type":        "string",
				"description": "The medical specialty to search for",
			},
		},
		"required": []string{"specialty"},
	}
	return NewFunctionTool(
		"find_doctors_by_specialty",
		"Find doctors who specialize in a specific medical area",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			specialty := argString(args, "specialty")

			doctors, err := st.FindDoctorsBySpecialty(tc.Context(), specialty)
			if err != nil {
				return nil, err
			}
			if len(doctors) == 0 {
				return fmt.Sprintf("No doctors found with specialty: %s", specialty), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Doctors specializing in %s:\n\n", specialty)
			for _, d := range doctors {
				fmt.Fprintf(&b, "• %s (ID: %d)\n", d.Name, d.ID)
				if len(d.NextAvailable) > 0 {
					fmt.Fprintf(&b, "  Next available: %s\n", strings.Join(d.NextAvailable, ", "))
				}
				b.WriteString("\n")
			}
			return b.String(), nil
		},
	)
}

func newGetAvailableSlots(st store.Store) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"doctor_id": map[string]any{
				"type":        "integer",
				"description": "The doctor's ID number",
			},
			"date": map[string]any{
				"type":        "string",
				"description": "Specific date in YYYY-MM-DD format (optional)",
			},
		},
		"required": []string{"doctor_id"},
	}
	return NewFunctionTool(
		"get_available_slots",
		"Get available appointment slots for a doctor",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			doctorID := argInt64(args, "doctor_id")
			date := argString(args, "date")

			slots, err := st.AvailableSlots(tc.Context(), store.SlotQuery{DoctorID: doctorID, Date: date})
			if err != nil {
				return nil, err
			}
			if len(slots) == 0 {
				msg := fmt.Sprintf("No available slots found for doctor ID %d", doctorID)
				if date != "" {
					msg += " on " + date
				}
				return msg, nil
			}

			var b strings.Builder
			b.WriteString("Available appointment slots:\n")
			currentDate := ""
			for _, sl := range slots {
				if sl.Date != currentDate {
					currentDate = sl.Date
					fmt.Fprintf(&b, "\n%s (%s):\n", sl.Date, sl.DoctorName)
				}
				fmt.Fprintf(&b, "  • %s\n", sl.Time)
			}
			return b.String(), nil
		},
	)
}

func newScheduleAppointment(st store.Store) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"doctor_id": map[string]any{
				"type":        "integer",
				"description": "The doctor's ID number",
			},
			"date": map[string]any{
				"type":        "string",
				"description": "Appointment date in YYYY-MM-DD format",
			},
			"time": map[string]any{
				"type":        "string",
				"description": "Appointment time in HH:MM format",
			},
			"notes": map[string]any{
				"type":        "string",
				"description": "Additional notes about the appointment (optional)",
			},
		},
		"required": []string{"doctor_id", "date", "time"},
	}
	return NewFunctionTool(
		"schedule_appointment",
		"Schedule an appointment for a patient with a doctor",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			patient := tc.Session().CurrentPatient()
			if patient == nil {
				return "No patient selected. Please look up or create a patient first.", nil
			}

			doctorID := argInt64(args, "doctor_id")
			date := argString(args, "date")
			timeOfDay := argString(args, "time")
			notes := argString(args, "notes")

			slot, err := st.FindOpenSlot(tc.Context(), doctorID, date, timeOfDay)
			if err != nil {
				return nil, err
			}
			if slot == nil {
				return nil, core.NewDomainError(core.ErrSlotUnavailable,
					"the slot on %s at %s is not available for doctor %d", date, timeOfDay, doctorID)
			}

			appt, err := st.BookAppointment(tc.Context(), patient.ID, slot.ID, notes)
			if err != nil {
				return nil, err
			}

			var b strings.Builder
			b.WriteString("Appointment confirmed!\n\n")
			fmt.Fprintf(&b, "Patient: %s\n", patient.Name)
			fmt.Fprintf(&b, "Doctor: %s\n", appt.DoctorName)
			fmt.Fprintf(&b, "Date: %s\n", appt.Date)
			fmt.Fprintf(&b, "Time: %s\n", appt.Time)
			fmt.Fprintf(&b, "Appointment ID: %d\n", appt.ID)
			if notes != "" {
				fmt.Fprintf(&b, "Notes: %s\n", notes)
			}
			return b.String(), nil
		},
	)
}

func newGetPatientAppointments(st store.Store) Tool {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	return NewFunctionTool(
		"get_patient_appointments",
		"Get all appointments for the current patient",
		schema,
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			patient := tc.Session().CurrentPatient()
			if patient == nil {
				return "No patient selected. Please look up a patient first.", nil
			}

			appts, err := st.PatientAppointments(tc.Context(), patient.ID)
			if err != nil {
				return nil, err
			}
			if len(appts) == 0 {
				return fmt.Sprintf("No appointments found for %s", patient.Name), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Appointments for %s:\n\n", patient.Name)
			for _, a := range appts {
				fmt.Fprintf(&b, "• %s at %s\n", a.Date, a.Time)
				fmt.Fprintf(&b, "  Doctor: %s (%s)\n", a.DoctorName, a.Specialty)
				fmt.Fprintf(&b, "  Status: %s\n", a.Status)
				fmt.Fprintf(&b, "  ID: %d\n", a.ID)
				if a.Notes != "" {
					fmt.Fprintf(&b, "  Notes: %s\n", a.Notes)
				}
				b.WriteString("\n")
			}
			return b.String(), nil
		},
	)
}

func newCancelAppointment(st store.Store) Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"appointment_id": map[string]any{
				"type":        "integer",
				"description": "The appointment ID to cancel",
			},
		},
		"required": []string{"appointment_id"},
	}
	return NewFunctionTool(
		"cancel_appointment",
		"Cancel an existing appointment",
		schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			appointmentID := argInt64(args, "appointment_id")

			if err := st.CancelAppointment(tc.Context(), appointmentID); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Appointment %d has been successfully cancelled. The time slot is now available for other patients.",
				appointmentID), nil
		},
	)
}

func newGetCurrentPatientInfo() Tool {
	schema := map[string]any{"type": "object", "properties": map[string]any{}}
	return NewFunctionTool(
		"get_current_patient_info",
		"Get information about the currently selected patient",
		schema,
		func(tc *core.ToolContext, _ map[string]any) (any, error) {
			patient := tc.Session().CurrentPatient()
			if patient == nil {
				return "No patient currently selected. Use lookup_patient or create_patient first.", nil
			}
			return fmt.Sprintf("Current patient:\nName: %s\nPhone: %s\nEmail: %s\nPatient ID: %d",
				patient.Name, patient.Phone, orNotProvided(patient.Email), patient.ID), nil
		},
	)
}

func writeDoctorLine(b *strings.Builder, d clinic.Doctor) {
	fmt.Fprintf(b, "• %s - %s\n", d.Name, strings.Join(d.Specialties, ", "))
	if len(d.NextAvailable) > 0 {
		fmt.Fprintf(b, "  Next available: %s\n", strings.Join(d.NextAvailable, ", "))
	}
	b.WriteString("\n")
}

// argString extracts a string argument, tolerating absence.
func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// argInt64 extracts an integer argument. JSON decoding produces float64, and
// hand-built test args may carry native ints; both are accepted.
func argInt64(args map[string]any, key string) int64 {
	switch v := args[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}
