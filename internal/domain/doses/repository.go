package doses

import (
	"context"
	"time"
)

type Repository interface {
	// CreateBatch inserta todas las dosis o ninguna.
	CreateBatch(ctx context.Context, ds []Dose) error
	GetByID(ctx context.Context, id string) (Dose, error)
	List(ctx context.Context, userID string, filter ListFilter) ([]Dose, error)
	CountByMedication(ctx context.Context, medicationID string) (int, error)
	MarkTaken(ctx context.Context, id string, at time.Time) error
	DeleteByMedication(ctx context.Context, medicationID string) (int, error)
}

type ListFilter struct {
	MedicationID string
	From         *time.Time // inclusive
	To           *time.Time // exclusive
	Taken        *bool
	Limit        int  // 0 = sin límite
	Desc         bool // por scheduled_at; asc por defecto
}

// DayCache guarda la vista "dosis del día" por usuario.
// day identifica fecha + zona ("2025-01-01@America/Sao_Paulo").
type DayCache interface {
	Get(ctx context.Context, userID, day string) ([]DoseView, bool, error)
	Set(ctx context.Context, userID, day string, v []DoseView) error
	Invalidate(ctx context.Context, userID string) error
}
