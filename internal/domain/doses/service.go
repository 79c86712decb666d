package doses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"med-reminder/internal/domain/medications"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/platform/metrics"
	"med-reminder/internal/schedule"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("dose not found")
	// ErrAlreadyScheduled: las dosis de un medicamento se crean en un único lote.
	ErrAlreadyScheduled = errors.New("medication already has doses")
)

const (
	maxBatch       = schedule.MaxDoses
	defaultHistory = 50
	maxHistory     = 200
)

type Service struct {
	repo  Repository
	meds  medications.Repository
	cache DayCache // puede ser nil
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Repository, meds medications.Repository, cache DayCache, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		meds:  meds,
		cache: cache,
		log:   logger.OrNop(log),
		now:   time.Now,
	}
}

// WithNow reemplaza el reloj (tests de otros paquetes).
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateBatch crea el lote de dosis de un medicamento del usuario.
// Los instantes deben venir estrictamente crecientes (como los genera el calendario).
func (s *Service) CreateBatch(ctx context.Context, userID, medicationID string, times []time.Time) ([]Dose, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(medicationID) == "" {
		return nil, ErrInvalidInput
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: doses required", ErrInvalidInput)
	}
	if len(times) > maxBatch {
		return nil, fmt.Errorf("%w: at most %d doses per medication", ErrInvalidInput, maxBatch)
	}

	med, err := s.meds.GetByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if med.UserID != userID {
		return nil, medications.ErrNotFound
	}

	for i, t := range times {
		if t.IsZero() {
			return nil, fmt.Errorf("%w: dose %d has no time", ErrInvalidInput, i)
		}
		if i > 0 && !t.After(times[i-1]) {
			return nil, fmt.Errorf("%w: doses must be strictly increasing (index %d)", ErrInvalidInput, i)
		}
	}

	n, err := s.repo.CountByMedication(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrAlreadyScheduled
	}

	now := s.now().UTC()
	out := make([]Dose, 0, len(times))
	for _, t := range times {
		out = append(out, Dose{
			ID:           uuid.NewString(),
			MedicationID: medicationID,
			UserID:       userID,
			ScheduledAt:  t.UTC(),
			CreatedAt:    now,
		})
	}

	if err := s.repo.CreateBatch(ctx, out); err != nil {
		return nil, err
	}

	metrics.DosesCreated.Add(float64(len(out)))
	s.invalidate(ctx, userID)
	s.log.Info("doses created",
		zap.String("medication_id", medicationID),
		zap.Int("count", len(out)),
		zap.Time("first", out[0].ScheduledAt),
		zap.Time("last", out[len(out)-1].ScheduledAt),
	)
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Dose, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Dose{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

type DayQuery struct {
	Date     string         // YYYY-MM-DD; vacío = hoy
	Location *time.Location // nil = UTC

	// UpcomingOnly recorta el día desde "ahora" (sólo aplica a hoy).
	UpcomingOnly bool
}

// Window devuelve [inicio, fin) del día pedido en su zona.
func (s *Service) Window(q DayQuery) (time.Time, time.Time, error) {
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}
	now := s.now().In(loc)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if strings.TrimSpace(q.Date) != "" {
		d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(q.Date), loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
		day = d
	}
	start, end := day, day.AddDate(0, 0, 1)

	if q.UpcomingOnly && now.After(start) && now.Before(end) {
		start = now
	}
	return start.UTC(), end.UTC(), nil
}

// ListForDay devuelve las dosis del día (tomadas o no) con su medicamento, por horario.
func (s *Service) ListForDay(ctx context.Context, userID string, q DayQuery) ([]DoseView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	start, end, err := s.Window(q)
	if err != nil {
		return nil, err
	}

	cacheable := s.cache != nil && !q.UpcomingOnly
	dayKey := dayKeyOf(start, q.Location)

	if cacheable {
		v, ok, err := s.cache.Get(ctx, userID, dayKey)
		switch {
		case err != nil:
			metrics.DoseCacheLookups.WithLabelValues("error").Inc()
			s.log.Warn("dose cache get failed", zap.String("user_id", userID), zap.Error(err))
		case ok:
			metrics.DoseCacheLookups.WithLabelValues("hit").Inc()
			return v, nil
		default:
			metrics.DoseCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	items, err := s.repo.List(ctx, userID, ListFilter{From: &start, To: &end})
	if err != nil {
		return nil, err
	}
	out, err := s.join(ctx, items)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, userID, dayKey, out); err != nil {
			s.log.Warn("dose cache set failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return out, nil
}

// History lista dosis con filtros, más recientes primero.
func (s *Service) History(ctx context.Context, userID string, filter ListFilter) ([]DoseView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistory
	}
	if filter.Limit > maxHistory {
		filter.Limit = maxHistory
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: to before from", ErrInvalidInput)
	}
	filter.Desc = true

	items, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, items)
}

// MarkTaken es idempotente: marcar una dosis ya tomada devuelve la dosis sin cambios.
func (s *Service) MarkTaken(ctx context.Context, userID, doseID string) (Dose, error) {
	d, err := s.GetByID(ctx, doseID)
	if err != nil {
		return Dose{}, err
	}
	if d.UserID != userID {
		return Dose{}, ErrNotFound
	}
	if d.Taken {
		metrics.DosesTaken.WithLabelValues("already_taken").Inc()
		return d, nil
	}

	at := s.now().UTC()
	if err := s.repo.MarkTaken(ctx, d.ID, at); err != nil {
		return Dose{}, err
	}
	d.Taken = true
	d.TakenAt = &at

	metrics.DosesTaken.WithLabelValues("marked").Inc()
	s.invalidate(ctx, userID)
	s.log.Info("dose taken",
		zap.String("dose_id", d.ID),
		zap.String("medication_id", d.MedicationID),
		zap.Duration("delay", at.Sub(d.ScheduledAt)),
	)
	return d, nil
}

// RemoveForMedication implementa medications.DoseRemover.
func (s *Service) RemoveForMedication(ctx context.Context, m medications.Medication) (int, error) {
	n, err := s.repo.DeleteByMedication(ctx, m.ID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, m.UserID)
	return n, nil
}

func (s *Service) join(ctx context.Context, items []Dose) ([]DoseView, error) {
	info := map[string]MedicationInfo{}
	out := make([]DoseView, 0, len(items))

	for _, d := range items {
		mi, ok := info[d.MedicationID]
		if !ok {
			m, err := s.meds.GetByID(ctx, d.MedicationID)
			if errors.Is(err, medications.ErrNotFound) {
				// medicamento borrado a mitad de camino: la dosis queda huérfana
				continue
			}
			if err != nil {
				return nil, err
			}
			mi = MedicationInfo{
				ID:         m.ID,
				Name:       m.Name,
				DoseAmount: m.DoseLabel(),
				Color:      m.Color,
			}
			info[d.MedicationID] = mi
		}
		out = append(out, DoseView{Dose: d, Medication: mi})
	}
	return out, nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("dose cache invalidate failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func dayKeyOf(start time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).Format("2006-01-02") + "@" + loc.String()
}
