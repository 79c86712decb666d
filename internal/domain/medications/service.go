package medications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-reminder/internal/palette"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")
)

type Service struct {
	repo  Repository
	doses DoseRemover // puede ser nil (sin cascada)
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Repository, doses DoseRemover, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		doses: doses,
		log:   logger.OrNop(log),
		now:   time.Now,
	}
}

type CreateInput struct {
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

func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Medication, error) {
	if strings.TrimSpace(userID) == "" {
		return Medication{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return Medication{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if !palette.Valid(in.Color) {
		return Medication{}, fmt.Errorf("%w: unknown color %q", ErrInvalidInput, in.Color)
	}
	if in.DoseAmount < 0 {
		return Medication{}, fmt.Errorf("%w: dose_amount must be >= 0", ErrInvalidInput)
	}
	if in.BoxQuantity < 0 {
		return Medication{}, fmt.Errorf("%w: box_quantity must be >= 0", ErrInvalidInput)
	}
	if in.DailyFrequency <= 0 {
		return Medication{}, fmt.Errorf("%w: daily_frequency must be > 0", ErrInvalidInput)
	}
	if in.TreatmentDays <= 0 {
		return Medication{}, fmt.Errorf("%w: treatment_days must be > 0", ErrInvalidInput)
	}
	if in.FirstDoseAt.IsZero() {
		return Medication{}, fmt.Errorf("%w: first_dose_at required", ErrInvalidInput)
	}

	now := s.now().UTC()
	m := Medication{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		Classification: strings.TrimSpace(in.Classification),
		Color:          in.Color,
		DoseAmount:     in.DoseAmount,
		DoseUnit:       strings.TrimSpace(in.DoseUnit),
		BoxQuantity:    in.BoxQuantity,
		ExpirationDate: in.ExpirationDate,
		DailyFrequency: in.DailyFrequency,
		TreatmentDays:  in.TreatmentDays,
		Reason:         strings.TrimSpace(in.Reason),
		Note:           strings.TrimSpace(in.Note),
		FirstDoseAt:    in.FirstDoseAt.UTC(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return Medication{}, err
	}

	metrics.MedicationsCreated.Inc()
	s.log.Info("medication created",
		zap.String("medication_id", m.ID),
		zap.String("user_id", userID),
	)
	return m, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// GetOwned devuelve el medicamento sólo si pertenece a userID.
// Un medicamento ajeno se reporta como ErrNotFound para no filtrar ids.
func (s *Service) GetOwned(ctx context.Context, id, userID string) (Medication, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return Medication{}, err
	}
	if m.UserID != userID {
		return Medication{}, ErrNotFound
	}
	return m, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Medication, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete borra el medicamento y después sus dosis.
// Si falla el borrado de dosis, las que queden huérfanas ya no aparecen en ningún listado.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	m, err := s.GetOwned(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.doses != nil {
		n, err := s.doses.RemoveForMedication(ctx, m)
		if err != nil {
			s.log.Warn("medication deleted, dose cleanup failed",
				zap.String("medication_id", id), zap.Error(err))
			return nil
		}
		s.log.Info("doses deleted with medication", zap.String("medication_id", id), zap.Int("doses", n))
	}
	return nil
}
