package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"med-reminder/internal/domain/doses"
)

type doseRepo struct {
	mu   sync.RWMutex
	byID map[string]doses.Dose
}

func NewDoseRepo() doses.Repository {
	return &doseRepo{
		byID: make(map[string]doses.Dose),
	}
}

// CreateBatch valida todo el lote antes de escribir: o entran todas o ninguna.
func (r *doseRepo) CreateBatch(ctx context.Context, ds []doses.Dose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(ds))
	for _, d := range ds {
		if d.ID == "" {
			return errors.New("dose id required")
		}
		if _, exists := r.byID[d.ID]; exists {
			return errors.New("dose already exists")
		}
		if _, dup := seen[d.ID]; dup {
			return errors.New("duplicated dose id in batch")
		}
		seen[d.ID] = struct{}{}
	}

	for _, d := range ds {
		r.byID[d.ID] = d
	}
	return nil
}

func (r *doseRepo) GetByID(ctx context.Context, id string) (doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return doses.Dose{}, doses.ErrNotFound
	}
	return d, nil
}

func (r *doseRepo) List(ctx context.Context, userID string, filter doses.ListFilter) ([]doses.Dose, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]doses.Dose, 0)

	for _, d := range r.byID {
		if d.UserID != userID {
			continue
		}
		if filter.MedicationID != "" && d.MedicationID != filter.MedicationID {
			continue
		}

		// Rango [from, to)
		if filter.From != nil && d.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !d.ScheduledAt.Before(*filter.To) {
			continue
		}

		if filter.Taken != nil && d.Taken != *filter.Taken {
			continue
		}

		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ScheduledAt.Equal(b.ScheduledAt) {
			return a.ID < b.ID
		}
		if filter.Desc {
			return a.ScheduledAt.After(b.ScheduledAt)
		}
		return a.ScheduledAt.Before(b.ScheduledAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (r *doseRepo) CountByMedication(ctx context.Context, medicationID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, d := range r.byID {
		if d.MedicationID == medicationID {
			n++
		}
	}
	return n, nil
}

func (r *doseRepo) MarkTaken(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.byID[id]
	if !ok {
		return doses.ErrNotFound
	}
	if d.Taken {
		return nil
	}
	d.Taken = true
	d.TakenAt = &at
	r.byID[id] = d
	return nil
}

func (r *doseRepo) DeleteByMedication(ctx context.Context, medicationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, d := range r.byID {
		if d.MedicationID == medicationID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}
