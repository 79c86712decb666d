package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"med-reminder/internal/palette"
	"med-reminder/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	medErr   error
	dosesErr error

	meds  []Medication
	doses map[string][]time.Time
	calls int
}

func newFakeStore() *fakeStore { return &fakeStore{doses: map[string][]time.Time{}} }

func (s *fakeStore) CreateMedication(ctx context.Context, m Medication) (string, error) {
	s.calls++
	if s.medErr != nil {
		return "", s.medErr
	}
	s.meds = append(s.meds, m)
	return "med-1", nil
}

func (s *fakeStore) CreateDoses(ctx context.Context, medicationID string, doses []time.Time) error {
	s.calls++
	if s.dosesErr != nil {
		return s.dosesErr
	}
	s.doses[medicationID] = doses
	return nil
}

func validRequest() Request {
	return Request{
		Medication: Medication{
			Name:           "Dipirona",
			Color:          palette.Orange,
			DoseAmount:     500,
			DoseUnit:       "mg",
			DailyFrequency: 4,
			TreatmentDays:  2,
		},
		FirstDoseDate: "2025-01-01",
		FirstDoseTime: "10:00",
		Location:      time.UTC,
	}
}

func TestSave_CreatesMedicationThenDoses(t *testing.T) {
	store := newFakeStore()
	p := NewPlanner(store, nil)

	res, err := p.Save(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "med-1", res.MedicationID)
	require.Len(t, res.Doses, 8)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), res.Doses[0])
	assert.Equal(t, time.Date(2025, 1, 3, 4, 0, 0, 0, time.UTC), res.Doses[7])

	require.Len(t, store.meds, 1)
	assert.Equal(t, res.FirstDoseAt, store.meds[0].FirstDoseAt)
	assert.Equal(t, res.Doses, store.doses["med-1"])
}

func TestSave_ExplicitIntervalWins(t *testing.T) {
	store := newFakeStore()
	req := validRequest()
	req.Medication.DailyFrequency = 0
	req.Medication.TreatmentDays = 1
	req.IntervalHours = 8

	res, err := NewPlanner(store, nil).Save(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Doses, 3)
	assert.Equal(t, 3, store.meds[0].DailyFrequency)
}

func TestSave_LocationIsRespected(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	req := validRequest()
	req.Location = loc

	res, err := NewPlanner(newFakeStore(), nil).Save(context.Background(), req)
	require.NoError(t, err)
	// 10:00 en São Paulo (UTC-3, sin horario de verano en 2025) = 13:00 UTC
	assert.Equal(t, time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC), res.FirstDoseAt)
}

func TestSave_ValidationFailsBeforeAnyCall(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Request)
		field  string
		target error
	}{
		"empty name":        {func(r *Request) { r.Medication.Name = "  " }, "name", ErrInvalidInput},
		"unknown color":     {func(r *Request) { r.Medication.Color = "Roxo" }, "color", ErrInvalidInput},
		"negative dose":     {func(r *Request) { r.Medication.DoseAmount = -1 }, "dose_amount", ErrInvalidInput},
		"zero duration":     {func(r *Request) { r.Medication.TreatmentDays = 0 }, "treatment_days", schedule.ErrInvalidScheduleParameters},
		"zero frequency":    {func(r *Request) { r.Medication.DailyFrequency = 0 }, "daily_frequency", schedule.ErrInvalidScheduleParameters},
		"negative interval": {func(r *Request) { r.IntervalHours = -6 }, "interval_hours", schedule.ErrInvalidScheduleParameters},
		"bad date":          {func(r *Request) { r.FirstDoseDate = "01/01/2025" }, "first_dose", schedule.ErrInvalidScheduleParameters},
		"bad time":          {func(r *Request) { r.FirstDoseTime = "25:00" }, "first_dose", schedule.ErrInvalidScheduleParameters},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			req := validRequest()
			tc.mutate(&req)

			_, err := NewPlanner(store, nil).Save(context.Background(), req)
			require.Error(t, err)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
			assert.ErrorIs(t, err, tc.target)
			assert.Equal(t, 0, store.calls)
		})
	}
}

func TestSave_EmptyColorUsesFallback(t *testing.T) {
	store := newFakeStore()
	req := validRequest()
	req.Medication.Color = ""

	_, err := NewPlanner(store, nil).Save(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, palette.Fallback, store.meds[0].Color)
}

func TestSave_MedicationFailure(t *testing.T) {
	store := newFakeStore()
	store.medErr = errors.New("503")

	_, err := NewPlanner(store, nil).Save(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrPartialSave)
	assert.Equal(t, 1, store.calls)
}

func TestSave_DosesFailureIsPartialSave(t *testing.T) {
	store := newFakeStore()
	store.dosesErr = errors.New("timeout")

	res, err := NewPlanner(store, nil).Save(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialSave)
	assert.ErrorIs(t, err, ErrPersistence)

	var pe *PartialSaveError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "med-1", pe.MedicationID)
	assert.Equal(t, "med-1", res.MedicationID)
	assert.Empty(t, res.Doses)
}
