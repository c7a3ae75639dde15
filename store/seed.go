package store

import (
	"context"
	"fmt"
	"time"
)

// seedDoctor pairs a practitioner with their specialty tags.
type seedDoctor struct {
	name        string
	specialties []string
}

// defaultRoster is the clinic's seeded practitioner list. Applied only when
// the doctors table is empty, so administered rosters survive restarts.
var defaultRoster = []seedDoctor{
	{name: "Dr. Ieva Pukienė", specialties: []string{"Endocrinologist"}},
	{name: "Dr. Jonas Petrauskas", specialties: []string{"Endocrinologist"}},
	{name: "Dr. Giedrė Rimkutė", specialties: []string{"Endocrinologist", "Thyroid Specialist"}},
	{name: "Dr. Vytautas Bielskis", specialties: []string{"Diabetes Specialist"}},
}

// Seed populates the roster and generates open weekday slots (08:00–16:00,
// 30 days ahead) when the store is empty. Idempotent: existing doctors
// suppress the roster insert and slot generation uses INSERT OR IGNORE.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	return s.seedFrom(ctx, time.Now(), defaultRoster)
}

// seedFrom seeds with an explicit start date and roster; tests use it to pin
// the generated slot window.
func (s *SQLiteStore) seedFrom(ctx context.Context, start time.Time, roster []seedDoctor) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&count); err != nil {
		return fmt.Errorf("count doctors: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer tx.Rollback()

	doctorIDs := make([]int64, 0, len(roster))
	for _, d := range roster {
		res, err := tx.ExecContext(ctx, `INSERT INTO doctors (name) VALUES (?)`, d.name)
		if err != nil {
			return fmt.Errorf("insert doctor: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("doctor insert id: %w", err)
		}
		doctorIDs = append(doctorIDs, id)

		for _, sp := range d.specialties {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO doctor_specialties (doctor_id, specialty) VALUES (?, ?)`, id, sp); err != nil {
				return fmt.Errorf("insert specialty: %w", err)
			}
		}
	}

	day := start
	for offset := 0; offset < 30; offset++ {
		date := day.AddDate(0, 0, offset)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dateStr := date.Format("2006-01-02")
		for _, id := range doctorIDs {
			for hour := 8; hour < 17; hour++ {
				if _, err := tx.ExecContext(ctx, `
					INSERT OR IGNORE INTO slots (doctor_id, date, time, duration_min, status)
					VALUES (?, ?, ?, 60, 'open')`,
					id, dateStr, fmt.Sprintf("%02d:00", hour)); err != nil {
					return fmt.Errorf("insert slot: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
