package medapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"med-reminder/internal/notifier"
	"med-reminder/internal/palette"
	"med-reminder/internal/reminders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts.BaseURL = srv.URL
	opts.Timeout = time.Second
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresIdentity(t *testing.T) {
	_, err := New(Options{BaseURL: "http://localhost:8080"})
	assert.Error(t, err)
}

func TestCreateMedication_SendsDebugUser(t *testing.T) {
	var gotUser, gotPath string
	var body map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get(debugUserHeader)
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"med-1"}`))
	}, Options{UserID: "u1"})

	id, err := c.CreateMedication(context.Background(), reminders.Medication{
		Name:           "Dipirona",
		Color:          palette.Orange,
		DoseAmount:     500,
		DoseUnit:       "mg",
		DailyFrequency: 4,
		TreatmentDays:  2,
		FirstDoseAt:    time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "med-1", id)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "/medications", gotPath)
	assert.Equal(t, "Laranja", body["color"])
	assert.Equal(t, "2025-01-01T13:00:00Z", body["first_dose_at"])
	_, hasExp := body["expiration_date"]
	assert.False(t, hasExp)
}

func TestCreateDoses_TokenWinsOverUser(t *testing.T) {
	var gotAuth, gotUser, gotPath string
	var body dosesPayload

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUser = r.Header.Get(debugUserHeader)
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	}, Options{Token: "tok", UserID: "u1"})

	sp, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	first := time.Date(2025, 1, 1, 10, 0, 0, 0, sp)

	err = c.CreateDoses(context.Background(), "med-1", []time.Time{first, first.Add(6 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Empty(t, gotUser)
	assert.Equal(t, "/medications/med-1/doses", gotPath)
	assert.Equal(t, []string{"2025-01-01T13:00:00Z", "2025-01-01T19:00:00Z"}, body.Doses)
}

func TestFetchDosesForToday_MapsMedication(t *testing.T) {
	var gotTZ string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTZ = r.URL.Query().Get("tz")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"d1","medication_id":"m1","scheduled_at":"2025-01-01T13:00:00Z","taken":true,
			 "medication":{"id":"m1","name":"Dipirona","dose_amount":"500 mg","color":"Laranja","color_hex":"#FFA500"}},
			{"id":"d2","medication_id":"m1","scheduled_at":"2025-01-01T19:00:00Z","taken":false}
		]`))
	}, Options{UserID: "u1", Location: time.UTC})

	ds, err := c.FetchDosesForToday(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 2)

	assert.Equal(t, "UTC", gotTZ)
	assert.Equal(t, "d1", ds[0].ID)
	assert.True(t, ds[0].Taken)
	assert.Equal(t, notifier.Medication{Name: "Dipirona", DoseAmount: "500 mg", Color: palette.Orange}, ds[0].Medication)
	assert.Equal(t, time.Date(2025, 1, 1, 19, 0, 0, 0, time.UTC), ds[1].ScheduledAt)
	assert.Empty(t, ds[1].Medication.Name)
}

func TestMarkDoseTaken_NotFoundIsDoseGone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "dose not found", http.StatusNotFound)
	}, Options{UserID: "u1"})

	err := c.MarkDoseTaken(context.Background(), "d1")
	assert.ErrorIs(t, err, notifier.ErrDoseGone)
}

func TestMarkDoseTaken_ServerError(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		http.Error(w, "boom", http.StatusInternalServerError)
	}, Options{UserID: "u1"})

	err := c.MarkDoseTaken(context.Background(), "d1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, notifier.ErrDoseGone)
	assert.Equal(t, "/doses/d1/taken", gotPath)
}
