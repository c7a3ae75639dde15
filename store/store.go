// Package store provides the persistence layer for clinic entities. The
// Store interface is the only shared-mutation surface of the agent: multiple
// concurrent sessions execute against one Store, which guarantees that no
// partial writes are observable and that booking the same slot from two
// sessions admits exactly one winner.
package store

import (
	"context"

	"github.com/GediminasPukys/clinic-voice-agent/clinic"
)

// NewPatient carries the registration fields for a patient record.
type NewPatient struct {
	Name        string
	Phone       string
	Email       string
	DateOfBirth string
	Notes       string
}

// SlotQuery filters availability lookups. Zero values are ignored: DoctorID 0
// means any doctor, empty Date/From/To mean no date constraint. Limit
// defaults to 20 when unset.
type SlotQuery struct {
	DoctorID int64
	Date     string // exact day, YYYY-MM-DD
	From     string // inclusive range start, YYYY-MM-DD
	To       string // inclusive range end, YYYY-MM-DD
	Limit    int
}

// Store defines the clinic persistence contract. Read operations return
// empty slices (never nil) when nothing matches; lookups for a single entity
// return (nil, nil) on a miss so absence is not an error.
//
// Failure semantics:
//   - CreatePatient returns a ConflictError when the phone number exists.
//   - BookAppointment returns a SlotUnavailableError when the slot is not
//     open at execution time; the status check and transition are one atomic
//     unit, so two sessions can never both book the same slot.
//   - CancelAppointment returns a NotFoundError when the appointment is
//     unknown or already cancelled; it atomically frees the slot.
type Store interface {
	FindPatientByPhone(ctx context.Context, phone string) (*clinic.Patient, error)
	CreatePatient(ctx context.Context, np NewPatient) (*clinic.Patient, error)

	ListDoctors(ctx context.Context) ([]clinic.Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*clinic.Doctor, error)
	ListSpecialties(ctx context.Context) ([]string, error)
	FindDoctorsBySpecialty(ctx context.Context, specialty string) ([]clinic.Doctor, error)

	AvailableSlots(ctx context.Context, q SlotQuery) ([]clinic.Slot, error)
	FindOpenSlot(ctx context.Context, doctorID int64, date, timeOfDay string) (*clinic.Slot, error)

	BookAppointment(ctx context.Context, patientID, slotID int64, notes string) (*clinic.Appointment, error)
	PatientAppointments(ctx context.Context, patientID int64) ([]clinic.Appointment, error)
	CancelAppointment(ctx context.Context, appointmentID int64) error

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}
