package doses

import (
	"time"

	"med-reminder/internal/palette"
)

// Dose es una toma programada. Se crean en lote por medicamento y sólo cambian al marcarse tomadas.
type Dose struct {
	ID           string     `json:"id"`
	MedicationID string     `json:"medication_id"`
	UserID       string     `json:"user_id"`
	ScheduledAt  time.Time  `json:"scheduled_at"` // UTC
	Taken        bool       `json:"taken"`
	TakenAt      *time.Time `json:"taken_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// MedicationInfo es lo mínimo del medicamento que necesita una alerta.
type MedicationInfo struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	DoseAmount string        `json:"dose_amount"` // texto ya armado: "500 mg"
	Color      palette.Color `json:"color"`
}

// DoseView es una dosis con los datos de su medicamento (lo que consume el notifier).
type DoseView struct {
	Dose
	Medication MedicationInfo `json:"medication"`
}
