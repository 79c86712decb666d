package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-reminder/internal/palette"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/schedule"

	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPersistence  = errors.New("persistence failure")
	// ErrPartialSave: el medicamento quedó guardado pero sus dosis no.
	ErrPartialSave = errors.New("medication saved without doses")
)

// FieldError indica qué campo del formulario falló la validación.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// PartialSaveError lleva el id del medicamento huérfano para poder reintentar o borrar.
type PartialSaveError struct {
	MedicationID string
	Err          error
}

func (e *PartialSaveError) Error() string {
	return fmt.Sprintf("medication %s saved, doses failed: %v", e.MedicationID, e.Err)
}

func (e *PartialSaveError) Unwrap() []error { return []error{ErrPartialSave, ErrPersistence, e.Err} }

// Medication es lo que se persiste del formulario.
type Medication struct {
	Name           string
	Classification string
	Color          palette.Color
	DoseAmount     float64
	DoseUnit       string
	BoxQuantity    int
	ExpirationDate *time.Time
	DailyFrequency int
	TreatmentDays  int
	Reason         string
	Note           string
	FirstDoseAt    time.Time
}

// Store es el colaborador de persistencia (la API remota en cmd/remind).
type Store interface {
	CreateMedication(ctx context.Context, m Medication) (string, error)
	CreateDoses(ctx context.Context, medicationID string, doses []time.Time) error
}

type Request struct {
	Medication Medication // FirstDoseAt se calcula a partir de FirstDoseDate/FirstDoseTime

	FirstDoseDate string // YYYY-MM-DD
	FirstDoseTime string // HH:MM
	Location      *time.Location

	// IntervalHours > 0 pisa el intervalo derivado de DailyFrequency (24h / n).
	IntervalHours float64
}

type Result struct {
	MedicationID string
	FirstDoseAt  time.Time
	Doses        []time.Time
}

type Planner struct {
	store Store
	log   *zap.Logger
}

func NewPlanner(store Store, log *zap.Logger) *Planner {
	return &Planner{store: store, log: logger.OrNop(log)}
}

// Plan valida y genera el calendario sin tocar la red.
func (p *Planner) Plan(req Request) (Medication, []time.Time, error) {
	m := req.Medication
	m.Name = strings.TrimSpace(m.Name)
	m.Classification = strings.TrimSpace(m.Classification)
	m.DoseUnit = strings.TrimSpace(m.DoseUnit)
	m.Reason = strings.TrimSpace(m.Reason)
	m.Note = strings.TrimSpace(m.Note)

	if m.Name == "" {
		return Medication{}, nil, &FieldError{Field: "name", Err: ErrInvalidInput}
	}
	if m.Color == "" {
		m.Color = palette.Fallback
	}
	if !palette.Valid(m.Color) {
		return Medication{}, nil, &FieldError{Field: "color", Err: ErrInvalidInput}
	}
	if m.DoseAmount < 0 {
		return Medication{}, nil, &FieldError{Field: "dose_amount", Err: ErrInvalidInput}
	}
	if m.BoxQuantity < 0 {
		return Medication{}, nil, &FieldError{Field: "box_quantity", Err: ErrInvalidInput}
	}
	if m.TreatmentDays <= 0 {
		return Medication{}, nil, &FieldError{Field: "treatment_days", Err: schedule.ErrInvalidScheduleParameters}
	}

	var (
		interval time.Duration
		err      error
	)
	switch {
	case req.IntervalHours != 0:
		interval, err = schedule.IntervalFromHours(req.IntervalHours)
		if err != nil {
			return Medication{}, nil, &FieldError{Field: "interval_hours", Err: err}
		}
		if m.DailyFrequency <= 0 {
			m.DailyFrequency = max(1, int(24/req.IntervalHours))
		}
	default:
		interval, err = schedule.IntervalFromDailyFrequency(m.DailyFrequency)
		if err != nil {
			return Medication{}, nil, &FieldError{Field: "daily_frequency", Err: err}
		}
	}

	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	first, err := schedule.FirstDoseAt(req.FirstDoseDate, req.FirstDoseTime, loc)
	if err != nil {
		return Medication{}, nil, &FieldError{Field: "first_dose", Err: err}
	}
	m.FirstDoseAt = first

	doses, err := schedule.GenerateDoseTimes(first, interval, m.TreatmentDays)
	if err != nil {
		return Medication{}, nil, &FieldError{Field: "schedule", Err: err}
	}
	return m, doses, nil
}

// Save valida, crea el medicamento y después su lote de dosis.
// Sin reintentos: cualquier falla del Store se devuelve al caller.
func (p *Planner) Save(ctx context.Context, req Request) (Result, error) {
	m, doses, err := p.Plan(req)
	if err != nil {
		return Result{}, err
	}

	id, err := p.store.CreateMedication(ctx, m)
	if err != nil {
		p.log.Warn("create medication failed", zap.String("name", m.Name), zap.Error(err))
		return Result{}, fmt.Errorf("%w: create medication: %w", ErrPersistence, err)
	}

	if err := p.store.CreateDoses(ctx, id, doses); err != nil {
		p.log.Error("create doses failed, medication left without schedule",
			zap.String("medication_id", id),
			zap.Int("doses", len(doses)),
			zap.Error(err),
		)
		return Result{MedicationID: id, FirstDoseAt: m.FirstDoseAt}, &PartialSaveError{MedicationID: id, Err: err}
	}

	p.log.Info("reminder saved",
		zap.String("medication_id", id),
		zap.Int("doses", len(doses)),
		zap.Time("first_dose_at", m.FirstDoseAt),
	)
	return Result{MedicationID: id, FirstDoseAt: m.FirstDoseAt, Doses: doses}, nil
}
