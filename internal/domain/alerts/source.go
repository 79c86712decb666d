package alerts

import (
	"context"
	"errors"
	"time"

	"med-reminder/internal/domain/doses"
	"med-reminder/internal/notifier"
)

// localSource conecta el Notifier con el servicio de dosis del mismo proceso.
// Ya viene atado al usuario de la sesión.
type localSource struct {
	svc    *doses.Service
	userID string
	loc    *time.Location
}

func (s *localSource) FetchDosesForToday(ctx context.Context) ([]notifier.Dose, error) {
	items, err := s.svc.ListForDay(ctx, s.userID, doses.DayQuery{Location: s.loc})
	if err != nil {
		return nil, err
	}

	out := make([]notifier.Dose, 0, len(items))
	for _, v := range items {
		out = append(out, notifier.Dose{
			ID:          v.ID,
			ScheduledAt: v.ScheduledAt,
			Taken:       v.Taken,
			Medication: notifier.Medication{
				Name:       v.Medication.Name,
				DoseAmount: v.Medication.DoseAmount,
				Color:      v.Medication.Color,
			},
		})
	}
	return out, nil
}

func (s *localSource) MarkDoseTaken(ctx context.Context, doseID string) error {
	_, err := s.svc.MarkTaken(ctx, s.userID, doseID)
	if errors.Is(err, doses.ErrNotFound) {
		return notifier.ErrDoseGone
	}
	return err
}
