package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-reminder/internal/domain/doses"
)

type DosesRepo struct {
	db *sql.DB
}

func NewDosesRepo(db *sql.DB) *DosesRepo {
	return &DosesRepo{db: db}
}

const doseColumns = `
			id, medication_id, user_id,
			scheduled_at, taken, taken_at,
			created_at`

// CreateBatch inserta el lote en una sola transacción.
func (r *DosesRepo) CreateBatch(ctx context.Context, ds []doses.Dose) (err error) {
	if len(ds) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO doses (`+doseColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range ds {
		if _, err = stmt.ExecContext(ctx,
			d.ID,
			d.MedicationID,
			d.UserID,
			d.ScheduledAt,
			d.Taken,
			toNullTime(d.TakenAt),
			d.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert dose %s: %w", d.ID, err)
		}
	}

	return tx.Commit()
}

func (r *DosesRepo) GetByID(ctx context.Context, id string) (doses.Dose, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return doses.Dose{}, doses.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT`+doseColumns+`
		FROM doses
		WHERE id = $1
	`, id)

	d, err := scanDose(row)
	if errors.Is(err, sql.ErrNoRows) {
		return doses.Dose{}, doses.ErrNotFound
	}
	return d, err
}

func (r *DosesRepo) List(ctx context.Context, userID string, filter doses.ListFilter) ([]doses.Dose, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}

	sb := strings.Builder{}
	sb.WriteString(`
		SELECT` + doseColumns + `
		FROM doses
		WHERE user_id = $1
	`)

	args := []any{userID}
	argN := 2

	if filter.MedicationID != "" {
		sb.WriteString(fmt.Sprintf(" AND medication_id = $%d", argN))
		args = append(args, filter.MedicationID)
		argN++
	}

	// [from, to)
	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_at >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND scheduled_at < $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	if filter.Taken != nil {
		sb.WriteString(fmt.Sprintf(" AND taken = $%d", argN))
		args = append(args, *filter.Taken)
		argN++
	}

	if filter.Desc {
		sb.WriteString(" ORDER BY scheduled_at DESC, id ASC")
	} else {
		sb.WriteString(" ORDER BY scheduled_at ASC, id ASC")
	}

	if filter.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]doses.Dose, 0)
	for rows.Next() {
		d, err := scanDose(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, rows.Err()
}

func (r *DosesRepo) CountByMedication(ctx context.Context, medicationID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM doses WHERE medication_id = $1`, medicationID).Scan(&n)
	return n, err
}

// MarkTaken no pisa taken_at si la dosis ya estaba tomada.
func (r *DosesRepo) MarkTaken(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE doses
		SET taken = TRUE, taken_at = COALESCE(taken_at, $2)
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return doses.ErrNotFound
	}
	return nil
}

func (r *DosesRepo) DeleteByMedication(ctx context.Context, medicationID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM doses WHERE medication_id = $1`, medicationID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanDose(s scanner) (doses.Dose, error) {
	var (
		d       doses.Dose
		takenAt sql.NullTime
	)
	if err := s.Scan(
		&d.ID,
		&d.MedicationID,
		&d.UserID,
		&d.ScheduledAt,
		&d.Taken,
		&takenAt,
		&d.CreatedAt,
	); err != nil {
		return doses.Dose{}, err
	}

	d.ScheduledAt = d.ScheduledAt.UTC()
	if takenAt.Valid {
		t := takenAt.Time.UTC()
		d.TakenAt = &t
	}
	return d, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
