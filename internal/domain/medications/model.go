package medications

import (
	"strconv"
	"strings"
	"time"

	"med-reminder/internal/palette"
)

// Medication es un medicamento del catálogo de un usuario, con su esquema de tomas.
type Medication struct {
	ID     string
	UserID string

	Name           string
	Classification string        // analgésico, antibiótico, ...
	Color          palette.Color // nombre de la paleta, nunca hex

	DoseAmount float64 // 0 = no informado
	DoseUnit   string  // mg, ml, comp.

	BoxQuantity    int
	ExpirationDate *time.Time // solo fecha

	DailyFrequency int // tomas por día
	TreatmentDays  int

	Reason string
	Note   string

	FirstDoseAt time.Time // instante absoluto (UTC)

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DoseLabel arma el texto de la dosis para la alerta ("500 mg", "1 comp.").
func (m Medication) DoseLabel() string {
	if m.DoseAmount <= 0 {
		return strings.TrimSpace(m.DoseUnit)
	}
	amount := strconv.FormatFloat(m.DoseAmount, 'f', -1, 64)
	if strings.TrimSpace(m.DoseUnit) == "" {
		return amount
	}
	return amount + " " + strings.TrimSpace(m.DoseUnit)
}
