package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"med-reminder/internal/domain/medications"
	"med-reminder/internal/palette"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
			id, user_id,
			name, classification, color,
			dose_amount, dose_unit, box_quantity, expiration_date,
			daily_frequency, treatment_days,
			reason, note, first_dose_at,
			created_at, updated_at`

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		m.ID,
		m.UserID,
		m.Name,
		m.Classification,
		string(m.Color),
		m.DoseAmount,
		m.DoseUnit,
		m.BoxQuantity,
		toNullDate(m.ExpirationDate),
		m.DailyFrequency,
		m.TreatmentDays,
		m.Reason,
		m.Note,
		m.FirstDoseAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT`+medicationColumns+`
		FROM medications
		WHERE id = $1
	`, id)

	m, err := scanMedication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return medications.Medication{}, medications.ErrNotFound
	}
	return m, err
}

func (r *MedicationsRepo) ListByUser(ctx context.Context, userID string) ([]medications.Medication, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT`+medicationColumns+`
		FROM medications
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}

// Delete: las dosis se van por ON DELETE CASCADE; el service igual limpia después.
func (r *MedicationsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedication(s scanner) (medications.Medication, error) {
	var (
		m     medications.Medication
		color string
		exp   sql.NullTime
	)
	if err := s.Scan(
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Classification,
		&color,
		&m.DoseAmount,
		&m.DoseUnit,
		&m.BoxQuantity,
		&exp,
		&m.DailyFrequency,
		&m.TreatmentDays,
		&m.Reason,
		&m.Note,
		&m.FirstDoseAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	m.Color = palette.Color(color)
	if exp.Valid {
		t := exp.Time
		// ojo: expiration_date es date, pgx lo mapea a time.Time midnight UTC
		m.ExpirationDate = &t
	}
	m.FirstDoseAt = m.FirstDoseAt.UTC()
	return m, nil
}

// expiration_date es DATE, lo pasamos como NullTime para simplificar
func toNullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
