package memory

import (
	"context"
	"testing"
	"time"

	"med-reminder/internal/domain/doses"
	"med-reminder/internal/domain/medications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoseRepo_BatchIsAllOrNothing(t *testing.T) {
	repo := NewDoseRepo()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateBatch(ctx, []doses.Dose{
		{ID: "d1", MedicationID: "m1", UserID: "u1", ScheduledAt: base},
	}))

	err := repo.CreateBatch(ctx, []doses.Dose{
		{ID: "d2", MedicationID: "m1", UserID: "u1", ScheduledAt: base.Add(time.Hour)},
		{ID: "d1", MedicationID: "m1", UserID: "u1", ScheduledAt: base.Add(2 * time.Hour)},
	})
	require.Error(t, err)

	n, err := repo.CountByMedication(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDoseRepo_ListFilters(t *testing.T) {
	repo := NewDoseRepo()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateBatch(ctx, []doses.Dose{
		{ID: "a", MedicationID: "m1", UserID: "u1", ScheduledAt: base.Add(6 * time.Hour)},
		{ID: "b", MedicationID: "m1", UserID: "u1", ScheduledAt: base.Add(12 * time.Hour)},
		{ID: "c", MedicationID: "m2", UserID: "u1", ScheduledAt: base.Add(24 * time.Hour)},
		{ID: "x", MedicationID: "m9", UserID: "u2", ScheduledAt: base.Add(6 * time.Hour)},
	}))
	require.NoError(t, repo.MarkTaken(ctx, "a", base.Add(7*time.Hour)))

	from, to := base, base.Add(24*time.Hour)
	day, err := repo.List(ctx, "u1", doses.ListFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "a", day[0].ID)
	assert.True(t, day[0].Taken)

	pending := false
	open, err := repo.List(ctx, "u1", doses.ListFilter{Taken: &pending, Desc: true})
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "c", open[0].ID)

	byMed, err := repo.List(ctx, "u1", doses.ListFilter{MedicationID: "m2"})
	require.NoError(t, err)
	assert.Len(t, byMed, 1)

	n, err := repo.DeleteByMedication(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.GetByID(ctx, "a")
	assert.ErrorIs(t, err, doses.ErrNotFound)
}

func TestMedicationRepo_NotFound(t *testing.T) {
	repo := NewMedicationRepo()
	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, medications.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "nope"), medications.ErrNotFound)
}
