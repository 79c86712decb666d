package alerts

import (
	"context"
	"sync"
	"testing"
	"time"

	"med-reminder/internal/adapters/storage/memory"
	"med-reminder/internal/domain/doses"
	"med-reminder/internal/domain/medications"
	"med-reminder/internal/notifier"
	"med-reminder/internal/palette"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock: reloj manual; Advance dispara los timers vencidos fuera del lock.
type testClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*testTimer
}

type testTimer struct {
	c    *testClock
	at   time.Time
	f    func()
	done bool
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) AfterFunc(d time.Duration, f func()) notifier.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &testTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *testTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	was := !t.done
	t.done = true
	return was
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*testTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type env struct {
	clock *testClock
	meds  *medications.Service
	doses *doses.Service
	mgr   *Manager
}

func newEnv(t *testing.T) env {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	medRepo := memory.NewMedicationRepo()
	dosesSvc := doses.NewService(memory.NewDoseRepo(), medRepo, nil, nil).WithNow(clock.Now)
	medsSvc := medications.NewService(medRepo, dosesSvc, nil)

	mgr := NewManager(dosesSvc, Options{
		Clock:        clock,
		RefreshEvery: time.Minute,
		SessionIdle:  30 * time.Minute,
	})
	t.Cleanup(mgr.Shutdown)

	return env{clock: clock, meds: medsSvc, doses: dosesSvc, mgr: mgr}
}

func (e env) schedule(t *testing.T, userID string, times ...time.Time) []doses.Dose {
	t.Helper()
	ctx := context.Background()

	m, err := e.meds.Create(ctx, userID, medications.CreateInput{
		Name:           "Losartana",
		Color:          palette.LightBlue,
		DoseAmount:     50,
		DoseUnit:       "mg",
		DailyFrequency: 2,
		TreatmentDays:  1,
		FirstDoseAt:    times[0],
	})
	require.NoError(t, err)

	ds, err := e.doses.CreateBatch(ctx, userID, m.ID, times)
	require.NoError(t, err)
	return ds
}

func TestManager_AlertLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := e.clock.Now()
	ds := e.schedule(t, "u1", now.Add(-time.Hour), now.Add(time.Hour))

	a, ok, err := e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ds[0].ID, a.DoseID)
	assert.Equal(t, "Losartana", a.MedicationName)
	assert.Equal(t, "50 mg", a.DoseAmount)
	assert.Equal(t, "#00CFFF", a.ColorHex)
	assert.Equal(t, notifier.StateAlerting, e.mgr.State("u1"))

	require.NoError(t, e.mgr.Acknowledge(ctx, "u1", ds[0].ID))
	// idempotente
	require.NoError(t, e.mgr.Acknowledge(ctx, "u1", ds[0].ID))

	_, ok, err = e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, notifier.StateScheduled, e.mgr.State("u1"))

	taken, err := e.doses.GetByID(ctx, ds[0].ID)
	require.NoError(t, err)
	assert.True(t, taken.Taken)

	e.clock.Advance(time.Hour)

	a, ok, err = e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ds[1].ID, a.DoseID)
}

func TestManager_SessionsArePerUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := e.clock.Now()
	e.schedule(t, "u1", now.Add(-time.Minute))

	_, ok, err := e.mgr.Current(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, e.mgr.Sessions())
}

func TestManager_CloseDropsShownSet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := e.clock.Now()
	ds := e.schedule(t, "u1", now.Add(-time.Minute))

	a, ok, err := e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ds[0].ID, a.DoseID)

	assert.True(t, e.mgr.Close("u1"))
	assert.False(t, e.mgr.Close("u1"))
	assert.Equal(t, 0, e.mgr.Sessions())

	// sesión nueva: la dosis sigue sin tomar, se vuelve a mostrar
	a, ok, err = e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ds[0].ID, a.DoseID)
}

func TestManager_SweepClosesIdleSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.mgr.Current(ctx, "u1")
	require.NoError(t, err)

	e.clock.Advance(10 * time.Minute)
	_, _, err = e.mgr.Current(ctx, "u2")
	require.NoError(t, err)

	e.clock.Advance(25 * time.Minute)
	assert.Equal(t, 1, e.mgr.Sweep())
	assert.Equal(t, 1, e.mgr.Sessions())
}

func TestManager_RequiresUser(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.mgr.Current(context.Background(), " ")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestManager_SweepSparesSessionTouchedAfterScan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, _, err := e.mgr.Current(ctx, "u1")
	require.NoError(t, err)

	e.clock.Advance(31 * time.Minute)
	cutoff := e.clock.Now().Add(-30 * time.Minute)

	// la sesión se usa después de calcular el corte
	_, _, err = e.mgr.Current(ctx, "u1")
	require.NoError(t, err)

	assert.False(t, e.mgr.closeIfIdle("u1", cutoff))
	assert.Equal(t, 1, e.mgr.Sessions())
	assert.False(t, e.mgr.closeIfIdle("nobody", cutoff))
}

func TestManager_AcknowledgeWithoutPriorCurrent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := e.clock.Now()
	ds := e.schedule(t, "u1", now.Add(-time.Hour))

	require.NoError(t, e.mgr.Acknowledge(ctx, "u1", ds[0].ID))

	taken, err := e.doses.GetByID(ctx, ds[0].ID)
	require.NoError(t, err)
	assert.True(t, taken.Taken)

	_, ok, err := e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_AcknowledgeAfterCloseInNewSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := e.clock.Now()
	ds := e.schedule(t, "u1", now.Add(-time.Hour))

	a, ok, err := e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ds[0].ID, a.DoseID)

	require.True(t, e.mgr.Close("u1"))

	// el cliente confirma la alerta que ya tenía en pantalla
	require.NoError(t, e.mgr.Acknowledge(ctx, "u1", ds[0].ID))

	taken, err := e.doses.GetByID(ctx, ds[0].ID)
	require.NoError(t, err)
	assert.True(t, taken.Taken)

	e.clock.Advance(2 * time.Minute)
	_, ok, err = e.mgr.Current(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
