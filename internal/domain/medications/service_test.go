package medications

import (
	"context"
	"errors"
	"testing"
	"time"

	"med-reminder/internal/palette"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Medication
}

func newTestRepo() *testRepo { return &testRepo{byID: map[string]Medication{}} }

func (r *testRepo) Create(ctx context.Context, m Medication) error {
	if _, ok := r.byID[m.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[m.ID] = m
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Medication, error) {
	m, ok := r.byID[id]
	if !ok {
		return Medication{}, ErrNotFound
	}
	return m, nil
}

func (r *testRepo) ListByUser(ctx context.Context, userID string) ([]Medication, error) {
	out := make([]Medication, 0)
	for _, m := range r.byID {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type testRemover struct {
	removed []string
	err     error
	repo    *testRepo // si no es nil, registra si el medicamento seguía guardado
	sawMed  bool
}

func (r *testRemover) RemoveForMedication(ctx context.Context, m Medication) (int, error) {
	if r.repo != nil {
		_, r.sawMed = r.repo.byID[m.ID]
	}
	if r.err != nil {
		return 0, r.err
	}
	r.removed = append(r.removed, m.ID)
	return 3, nil
}

func validInput() CreateInput {
	return CreateInput{
		Name:           " Amoxicilina ",
		Classification: "antibiótico",
		Color:          palette.Yellow,
		DoseAmount:     500,
		DoseUnit:       "mg",
		DailyFrequency: 3,
		TreatmentDays:  7,
		FirstDoseAt:    time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func newTestService(rm DoseRemover) (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo, rm, nil)
	svc.now = func() time.Time { return time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestCreate_OK(t *testing.T) {
	svc, repo := newTestService(nil)

	m, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Amoxicilina", m.Name)
	assert.Equal(t, "user-1", m.UserID)
	assert.Equal(t, "500 mg", m.DoseLabel())
	assert.Equal(t, svc.now(), m.CreatedAt)
	assert.Contains(t, repo.byID, m.ID)
}

func TestCreate_DoseAmountBoundary(t *testing.T) {
	svc, _ := newTestService(nil)

	in := validInput()
	in.DoseAmount = 0
	_, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	in.DoseAmount = -0.5
	_, err = svc.Create(context.Background(), "user-1", in)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "dose_amount must be >= 0")
}

func TestCreate_Validation(t *testing.T) {
	cases := map[string]func(*CreateInput){
		"name":      func(in *CreateInput) { in.Name = "" },
		"color":     func(in *CreateInput) { in.Color = "#FF0000" },
		"dose":      func(in *CreateInput) { in.DoseAmount = -5 },
		"frequency": func(in *CreateInput) { in.DailyFrequency = 0 },
		"duration":  func(in *CreateInput) { in.TreatmentDays = 0 },
		"first":     func(in *CreateInput) { in.FirstDoseAt = time.Time{} },
		"box":       func(in *CreateInput) { in.BoxQuantity = -1 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo := newTestService(nil)
			in := validInput()
			mutate(&in)

			_, err := svc.Create(context.Background(), "user-1", in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, repo.byID)
		})
	}

	svc, _ := newTestService(nil)
	_, err := svc.Create(context.Background(), " ", validInput())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetOwned_HidesOtherUsers(t *testing.T) {
	svc, _ := newTestService(nil)
	m, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	_, err = svc.GetOwned(context.Background(), m.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetOwned(context.Background(), m.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
}

func TestDelete_CascadesDoses(t *testing.T) {
	rm := &testRemover{}
	svc, repo := newTestService(rm)
	m, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), m.ID, "user-1"))
	assert.Equal(t, []string{m.ID}, rm.removed)
	assert.NotContains(t, repo.byID, m.ID)
}

func TestDelete_RemovesMedicationBeforeDoses(t *testing.T) {
	rm := &testRemover{}
	svc, repo := newTestService(rm)
	rm.repo = repo
	m, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), m.ID, "user-1"))
	assert.Equal(t, []string{m.ID}, rm.removed)
	assert.False(t, rm.sawMed)
}

func TestDelete_DoseCleanupFailureStillDeletes(t *testing.T) {
	rm := &testRemover{err: errors.New("db down")}
	svc, repo := newTestService(rm)
	m, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), m.ID, "user-1"))
	assert.NotContains(t, repo.byID, m.ID)

	_, err = svc.GetOwned(context.Background(), m.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_NotOwner(t *testing.T) {
	rm := &testRemover{}
	svc, _ := newTestService(rm)
	m, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), m.ID, "user-2"), ErrNotFound)
	assert.Empty(t, rm.removed)
}

func TestDoseLabel(t *testing.T) {
	assert.Equal(t, "1.5 ml", Medication{DoseAmount: 1.5, DoseUnit: "ml"}.DoseLabel())
	assert.Equal(t, "2", Medication{DoseAmount: 2}.DoseLabel())
	assert.Equal(t, "comp.", Medication{DoseUnit: "comp."}.DoseLabel())
	assert.Equal(t, "", Medication{}.DoseLabel())
}
