package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GediminasPukys/clinic-voice-agent/clinic"
	"github.com/GediminasPukys/clinic-voice-agent/core"
	_ "modernc.org/sqlite"
)

// doctorPreviewSlots caps the availability preview attached to doctor reads.
const doctorPreviewSlots = 5

// defaultSlotLimit caps availability listings so a voice model is never fed
// hundreds of slots.
const defaultSlotLimit = 20

// SQLiteStore implements Store using SQLite through database/sql.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite-backed store at dbPath and
// initializes the schema.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent sessions; busy timeout absorbs writer
	// contention. The _pragma form applies to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS patients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		email TEXT,
		date_of_birth TEXT,
		notes TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS doctors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS doctor_specialties (
		doctor_id INTEGER NOT NULL REFERENCES doctors(id),
		specialty TEXT NOT NULL,
		UNIQUE(doctor_id, specialty)
	);
	CREATE INDEX IF NOT EXISTS idx_specialty ON doctor_specialties(specialty);

	CREATE TABLE IF NOT EXISTS slots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doctor_id INTEGER NOT NULL REFERENCES doctors(id),
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		duration_min INTEGER NOT NULL DEFAULT 30,
		status TEXT NOT NULL DEFAULT 'open',
		UNIQUE(doctor_id, date, time)
	);
	CREATE INDEX IF NOT EXISTS idx_slots_open ON slots(doctor_id, date, time) WHERE status = 'open';

	CREATE TABLE IF NOT EXISTS appointments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL REFERENCES patients(id),
		doctor_id INTEGER NOT NULL REFERENCES doctors(id),
		slot_id INTEGER NOT NULL REFERENCES slots(id),
		status TEXT NOT NULL,
		notes TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments(patient_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FindPatientByPhone retrieves a patient by phone number, (nil, nil) on miss.
func (s *SQLiteStore) FindPatientByPhone(ctx context.Context, phone string) (*clinic.Patient, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, email, date_of_birth, notes, created_at
		FROM patients WHERE phone = ?`, phone)

	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan patient row: %w", err)
	}
	return p, nil
}

// CreatePatient inserts a new patient record. A duplicate phone number yields
// a ConflictError.
func (s *SQLiteStore) CreatePatient(ctx context.Context, np NewPatient) (*clinic.Patient, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO patients (name, phone, email, date_of_birth, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		np.Name, np.Phone, nullable(np.Email), nullable(np.DateOfBirth), nullable(np.Notes), now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.NewDomainError(core.ErrConflict, "a patient with phone number %s already exists", np.Phone)
		}
		return nil, fmt.Errorf("insert patient: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("patient insert id: %w", err)
	}

	return &clinic.Patient{
		ID:          id,
		Name:        np.Name,
		Phone:       np.Phone,
		Email:       np.Email,
		DateOfBirth: np.DateOfBirth,
		Notes:       np.Notes,
		CreatedAt:   now,
	}, nil
}

// ListDoctors returns all doctors ordered by name, each with specialties and
// an availability preview.
func (s *SQLiteStore) ListDoctors(ctx context.Context) ([]clinic.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM doctors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query doctors: %w", err)
	}
	defer rows.Close()

	doctors := []clinic.Doctor{}
	for rows.Next() {
		var d clinic.Doctor
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan doctor row: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", err)
	}

	for i := range doctors {
		if err := s.fillDoctor(ctx, &doctors[i]); err != nil {
			return nil, err
		}
	}
	return doctors, nil
}

// GetDoctor retrieves a single doctor by id, (nil, nil) on miss.
func (s *SQLiteStore) GetDoctor(ctx context.Context, id int64) (*clinic.Doctor, error) {
	var d clinic.Doctor
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM doctors WHERE id = ?`, id).Scan(&d.ID, &d.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan doctor row: %w", err)
	}
	if err := s.fillDoctor(ctx, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListSpecialties returns all distinct specialty names in alphabetical order.
func (s *SQLiteStore) ListSpecialties(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT specialty FROM doctor_specialties ORDER BY specialty`)
	if err != nil {
		return nil, fmt.Errorf("query specialties: %w", err)
	}
	defer rows.Close()

	specialties := []string{}
	for rows.Next() {
		var sp string
		if err := rows.Scan(&sp); err != nil {
			return nil, fmt.Errorf("scan specialty row: %w", err)
		}
		specialties = append(specialties, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specialties: %w", err)
	}
	return specialties, nil
}

// FindDoctorsBySpecialty returns doctors tagged with the given specialty.
// The match is case-insensitive; an unknown specialty yields an empty slice.
func (s *SQLiteStore) FindDoctorsBySpecialty(ctx context.Context, specialty string) ([]clinic.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name FROM doctors d
		JOIN doctor_specialties ds ON ds.doctor_id = d.id
		WHERE ds.specialty = ? COLLATE NOCASE
		ORDER BY d.name`, specialty)
	if err != nil {
		return nil, fmt.Errorf("query doctors by specialty: %w", err)
	}
	defer rows.Close()

	doctors := []clinic.Doctor{}
	for rows.Next() {
		var d clinic.Doctor
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan doctor row: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate doctors: %w", err)
	}

	for i := range doctors {
		if err := s.fillDoctor(ctx, &doctors[i]); err != nil {
			return nil, err
		}
	}
	return doctors, nil
}

// AvailableSlots returns open slots matching the query ordered by date and time.
func (s *SQLiteStore) AvailableSlots(ctx context.Context, q SlotQuery) ([]clinic.Slot, error) {
	query := `
		SELECT s.id, s.doctor_id, d.name, s.date, s.time, s.duration_min, s.status
		FROM slots s
		JOIN doctors d ON s.doctor_id = d.id
		WHERE s.status = 'open'`
	args := []any{}

	if q.DoctorID != 0 {
		query += ` AND s.doctor_id = ?`
		args = append(args, q.DoctorID)
	}
	if q.Date != "" {
		query += ` AND s.date = ?`
		args = append(args, q.Date)
	}
	if q.From != "" {
		query += ` AND s.date >= ?`
		args = append(args, q.From)
	}
	if q.To != "" {
		query += ` AND s.date <= ?`
		args = append(args, q.To)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSlotLimit
	}
	query += ` ORDER BY s.date, s.time LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query available slots: %w", err)
	}
	defer rows.Close()

	slots := []clinic.Slot{}
	for rows.Next() {
		var sl clinic.Slot
		if err := rows.Scan(&sl.ID, &sl.DoctorID, &sl.DoctorName, &sl.Date, &sl.Time, &sl.DurationMin, &sl.Status); err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// FindOpenSlot locates a doctor's open slot at an exact date and time,
// (nil, nil) on miss.
func (s *SQLiteStore) FindOpenSlot(ctx context.Context, doctorID int64, date, timeOfDay string) (*clinic.Slot, error) {
	var sl clinic.Slot
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.doctor_id, d.name, s.date, s.time, s.duration_min, s.status
		FROM slots s
		JOIN doctors d ON s.doctor_id = d.id
		WHERE s.doctor_id = ? AND s.date = ? AND s.time = ? AND s.status = 'open'`,
		doctorID, date, timeOfDay,
	).Scan(&sl.ID, &sl.DoctorID, &sl.DoctorName, &sl.Date, &sl.Time, &sl.DurationMin, &sl.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan slot row: %w", err)
	}
	return &sl, nil
}

// BookAppointment atomically transitions the slot open -> booked and creates
// the appointment. The conditional UPDATE is the serialization point: when
// two sessions race for one slot, exactly one sees rows-affected 1, the other
// receives a SlotUnavailableError.
func (s *SQLiteStore) BookAppointment(ctx context.Context, patientID, slotID int64, notes string) (*clinic.Appointment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE slots SET status = 'booked' WHERE id = ? AND status = 'open'`, slotID)
	if err != nil {
		return nil, fmt.Errorf("mark slot booked: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("booking rows affected: %w", err)
	}
	if affected == 0 {
		return nil, core.NewDomainError(core.ErrSlotUnavailable, "the requested slot is no longer available")
	}

	var sl clinic.Slot
	err = tx.QueryRowContext(ctx, `
		SELECT s.id, s.doctor_id, d.name, s.date, s.time, s.duration_min
		FROM slots s JOIN doctors d ON s.doctor_id = d.id
		WHERE s.id = ?`, slotID,
	).Scan(&sl.ID, &sl.DoctorID, &sl.DoctorName, &sl.Date, &sl.Time, &sl.DurationMin)
	if err != nil {
		return nil, fmt.Errorf("load booked slot: %w", err)
	}

	now := time.Now()
	ins, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, slot_id, status, notes, created_at)
		VALUES (?, ?, ?, 'scheduled', ?, ?)`,
		patientID, sl.DoctorID, slotID, nullable(notes), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	apptID, err := ins.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("appointment insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}

	return &clinic.Appointment{
		ID:         apptID,
		PatientID:  patientID,
		DoctorID:   sl.DoctorID,
		SlotID:     slotID,
		DoctorName: sl.DoctorName,
		Date:       sl.Date,
		Time:       sl.Time,
		Status:     clinic.AppointmentScheduled,
		Notes:      notes,
	}, nil
}

// PatientAppointments returns all appointments for a patient, most recent
// first. Cancelled appointments are retained and included with their status.
func (s *SQLiteStore) PatientAppointments(ctx context.Context, patientID int64) ([]clinic.Appointment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.slot_id, a.status, a.notes,
		       d.name,
		       COALESCE((SELECT GROUP_CONCAT(specialty, ', ')
		                 FROM (SELECT specialty FROM doctor_specialties
		                       WHERE doctor_id = d.id ORDER BY specialty)), ''),
		       s.date, s.time
		FROM appointments a
		JOIN doctors d ON a.doctor_id = d.id
		JOIN slots s ON a.slot_id = s.id
		WHERE a.patient_id = ?
		ORDER BY s.date DESC, s.time DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	appts := []clinic.Appointment{}
	for rows.Next() {
		var a clinic.Appointment
		var notes sql.NullString
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.SlotID, &a.Status, &notes,
			&a.DoctorName, &a.Specialty, &a.Date, &a.Time); err != nil {
			return nil, fmt.Errorf("scan appointment row: %w", err)
		}
		a.Notes = notes.String
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}
	return appts, nil
}

// CancelAppointment marks a scheduled appointment cancelled and atomically
// returns its slot to open. An unknown id or a second cancel yields a
// NotFoundError.
func (s *SQLiteStore) CancelAppointment(ctx context.Context, appointmentID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback()

	// Conditional UPDATE first, as in BookAppointment: when two sessions
	// race to cancel one appointment, exactly one sees rows-affected 1 and
	// the other gets the NotFoundError instead of a lock-upgrade failure.
	res, err := tx.ExecContext(ctx,
		`UPDATE appointments SET status = 'cancelled' WHERE id = ? AND status = 'scheduled'`, appointmentID)
	if err != nil {
		return fmt.Errorf("mark appointment cancelled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel rows affected: %w", err)
	}
	if affected == 0 {
		return core.NewDomainError(core.ErrNotFound, "appointment %d does not exist or is already cancelled", appointmentID)
	}

	var slotID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT slot_id FROM appointments WHERE id = ?`, appointmentID).Scan(&slotID); err != nil {
		return fmt.Errorf("load appointment slot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE slots SET status = 'open' WHERE id = ?`, slotID); err != nil {
		return fmt.Errorf("reopen slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel: %w", err)
	}
	return nil
}

// fillDoctor loads the specialty tags and the availability preview.
func (s *SQLiteStore) fillDoctor(ctx context.Context, d *clinic.Doctor) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT specialty FROM doctor_specialties WHERE doctor_id = ? ORDER BY specialty`, d.ID)
	if err != nil {
		return fmt.Errorf("query doctor specialties: %w", err)
	}
	defer rows.Close()

	d.Specialties = []string{}
	for rows.Next() {
		var sp string
		if err := rows.Scan(&sp); err != nil {
			return fmt.Errorf("scan specialty row: %w", err)
		}
		d.Specialties = append(d.Specialties, sp)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate specialties: %w", err)
	}

	preview, err := s.db.QueryContext(ctx, `
		SELECT date, time FROM slots
		WHERE doctor_id = ? AND status = 'open'
		ORDER BY date, time LIMIT ?`, d.ID, doctorPreviewSlots)
	if err != nil {
		return fmt.Errorf("query slot preview: %w", err)
	}
	defer preview.Close()

	d.NextAvailable = []string{}
	for preview.Next() {
		var date, timeOfDay string
		if err := preview.Scan(&date, &timeOfDay); err != nil {
			return fmt.Errorf("scan slot preview row: %w", err)
		}
		d.NextAvailable = append(d.NextAvailable, date+" "+timeOfDay)
	}
	return preview.Err()
}

// scanner abstracts *sql.Row / *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(row scanner) (*clinic.Patient, error) {
	var p clinic.Patient
	var email, dob, notes sql.NullString
	var createdAt int64
	if err := row.Scan(&p.ID, &p.Name, &p.Phone, &email, &dob, &notes, &createdAt); err != nil {
		return nil, err
	}
	p.Email = email.String
	p.DateOfBirth = dob.String
	p.Notes = notes.String
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}

// nullable maps "" to NULL so optional text columns stay NULL instead of
// storing empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation checks for a SQLite unique-constraint failure. The
// modernc driver surfaces these as wrapped text errors rather than typed
// codes.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
