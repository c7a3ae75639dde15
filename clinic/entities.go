package clinic

import "time"

// Slot status values. A slot transitions open -> booked at most once per
// booking; cancelling the appointment returns it to open.
const (
	SlotOpen   = "open"
	SlotBooked = "booked"
)

// Appointment status values. Cancelled appointments are retained for history
// rather than purged.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
)

// Patient is a registered caller. Phone is unique and serves as the lookup
// key; records are never auto-deleted.
type Patient struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Doctor is a clinic practitioner. Specialties holds one or more specialty
// tags; NextAvailable carries a short preview of upcoming open slots
// ("2026-09-01 09:00") populated by read queries for model-facing summaries.
type Doctor struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Specialties   []string `json:"specialties"`
	NextAvailable []string `json:"next_available,omitempty"`
}

// Slot is a bookable time unit belonging to one doctor. Date is YYYY-MM-DD,
// Time is HH:MM, duration is in minutes.
type Slot struct {
	ID          int64  `json:"id"`
	DoctorID    int64  `json:"doctor_id"`
	DoctorName  string `json:"doctor_name,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	DurationMin int    `json:"duration_min"`
	Status      string `json:"status"`
}

// Appointment links a patient to a doctor's slot. DoctorName and Specialty
// are denormalized join fields for display; the slot reference is the source
// of truth for date and time.
type Appointment struct {
	ID         int64  `json:"id"`
	PatientID  int64  `json:"patient_id"`
	DoctorID   int64  `json:"doctor_id"`
	SlotID     int64  `json:"slot_id"`
	DoctorName string `json:"doctor_name,omitempty"`
	Specialty  string `json:"specialty,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}
