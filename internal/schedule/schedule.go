package schedule

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	// ErrInvalidScheduleParameters se devuelve cuando el intervalo o la duración no son positivos,
	// cuando el plan supera MaxDoses, o cuando la fecha/hora de la primera dosis no se puede interpretar.
	ErrInvalidScheduleParameters = errors.New("invalid schedule parameters")
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"

	// MaxDoses es el tope de dosis de un tratamiento.
	MaxDoses = 5000

	day = 24 * time.Hour
)

// GenerateDoseTimes devuelve los instantes de cada dosis: firstDoseAt, firstDoseAt+interval, ...
// mientras sean estrictamente anteriores a firstDoseAt + durationDays*24h.
// El resultado está completo (no es lazy), en orden ascendente y normalizado a UTC.
func GenerateDoseTimes(firstDoseAt time.Time, interval time.Duration, durationDays int) ([]time.Time, error) {
	if interval <= 0 || durationDays <= 0 {
		return nil, ErrInvalidScheduleParameters
	}
	if firstDoseAt.IsZero() {
		return nil, ErrInvalidScheduleParameters
	}

	if int64(durationDays) > math.MaxInt64/int64(day) {
		return nil, fmt.Errorf("%w: treatment of %d days", ErrInvalidScheduleParameters, durationDays)
	}
	span := time.Duration(durationDays) * day

	// cantidad de instantes en [inicio, fin)
	count := int64((span-1)/interval) + 1
	if count > MaxDoses {
		return nil, fmt.Errorf("%w: %d doses exceeds limit of %d", ErrInvalidScheduleParameters, count, MaxDoses)
	}

	start := firstDoseAt.UTC()
	end := start.Add(span)

	out := make([]time.Time, 0, count)
	for t := start; t.Before(end); t = t.Add(interval) {
		out = append(out, t)
	}
	return out, nil
}

// FirstDoseAt arma el instante absoluto de la primera dosis a partir de la fecha (YYYY-MM-DD)
// y la hora (HH:MM) tal como las cargó el usuario, interpretadas en loc.
// No pasa por ningún reloj local intermedio: loc es explícito.
func FirstDoseAt(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	t, err := time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: first dose %q %q: %v", ErrInvalidScheduleParameters, date, clock, err)
	}
	return t.UTC(), nil
}

// IntervalFromDailyFrequency reparte el día en n tomas iguales (24h / n).
func IntervalFromDailyFrequency(n int) (time.Duration, error) {
	if n <= 0 {
		return 0, ErrInvalidScheduleParameters
	}
	return day / time.Duration(n), nil
}

// IntervalFromHours convierte horas (puede ser fraccional, p.ej. 1.5) a duración.
func IntervalFromHours(hours float64) (time.Duration, error) {
	if hours <= 0 {
		return 0, ErrInvalidScheduleParameters
	}
	d := time.Duration(hours * float64(time.Hour))
	if d <= 0 {
		return 0, ErrInvalidScheduleParameters
	}
	return d, nil
}
