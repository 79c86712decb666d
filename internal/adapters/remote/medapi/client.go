// Package medapi habla con la API HTTP de med-reminder. Lo usa el CLI remind.
package medapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"med-reminder/internal/notifier"
	"med-reminder/internal/palette"
	"med-reminder/internal/platform/httpclient"
	"med-reminder/internal/reminders"
	"med-reminder/internal/schedule"
)

const debugUserHeader = "X-Debug-User-ID"

type Options struct {
	BaseURL  string
	Token    string // bearer; si viene vacío se manda X-Debug-User-ID
	UserID   string
	Timeout  time.Duration
	Location *time.Location // zona para "hoy"
}

// Client implementa reminders.Store y notifier.Source contra la API.
type Client struct {
	http   *httpclient.Client
	userID string
	loc    *time.Location
}

var (
	_ reminders.Store = (*Client)(nil)
	_ notifier.Source = (*Client)(nil)
)

func New(opts Options) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(opts.BaseURL, opts.Timeout)
	if err != nil {
		return nil, err
	}
	return newClient(hc, opts)
}

func newClient(hc *httpclient.Client, opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	userID := strings.TrimSpace(opts.UserID)
	if token == "" && userID == "" {
		return nil, errors.New("medapi: token or user id required")
	}
	if token != "" {
		hc.WithToken(httpclient.StaticToken(token))
		userID = ""
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Client{http: hc, userID: userID, loc: loc}, nil
}

func (c *Client) headers() map[string]string {
	if c.userID == "" {
		return nil
	}
	return map[string]string{debugUserHeader: c.userID}
}

type medicationPayload struct {
	Name           string        `json:"name"`
	Classification string        `json:"classification,omitempty"`
	Color          palette.Color `json:"color"`
	DoseAmount     float64       `json:"dose_amount"`
	DoseUnit       string        `json:"dose_unit"`
	BoxQuantity    int           `json:"box_quantity,omitempty"`
	ExpirationDate string        `json:"expiration_date,omitempty"`
	DailyFrequency int           `json:"daily_frequency"`
	TreatmentDays  int           `json:"treatment_days"`
	Reason         string        `json:"reason,omitempty"`
	Note           string        `json:"note,omitempty"`
	FirstDoseAt    string        `json:"first_dose_at"`
}

type dosesPayload struct {
	Doses []string `json:"doses"`
}

type doseItem struct {
	ID          string    `json:"id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Taken       bool      `json:"taken"`
	Medication  *struct {
		Name       string        `json:"name"`
		DoseAmount string        `json:"dose_amount"`
		Color      palette.Color `json:"color"`
	} `json:"medication"`
}

func (c *Client) CreateMedication(ctx context.Context, m reminders.Medication) (string, error) {
	in := medicationPayload{
		Name:           m.Name,
		Classification: m.Classification,
		Color:          m.Color,
		DoseAmount:     m.DoseAmount,
		DoseUnit:       m.DoseUnit,
		BoxQuantity:    m.BoxQuantity,
		DailyFrequency: m.DailyFrequency,
		TreatmentDays:  m.TreatmentDays,
		Reason:         m.Reason,
		Note:           m.Note,
		FirstDoseAt:    m.FirstDoseAt.UTC().Format(time.RFC3339),
	}
	if m.ExpirationDate != nil {
		in.ExpirationDate = m.ExpirationDate.Format(schedule.DateLayout)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := c.http.DoJSON(ctx, http.MethodPost, "/medications", c.headers(), in, &out); err != nil {
		return "", fmt.Errorf("create medication: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("create medication: response without id")
	}
	return out.ID, nil
}

func (c *Client) CreateDoses(ctx context.Context, medicationID string, doses []time.Time) error {
	in := dosesPayload{Doses: make([]string, 0, len(doses))}
	for _, t := range doses {
		in.Doses = append(in.Doses, t.UTC().Format(time.RFC3339))
	}

	p := "/medications/" + url.PathEscape(medicationID) + "/doses"
	if err := c.http.DoJSON(ctx, http.MethodPost, p, c.headers(), in, nil); err != nil {
		return fmt.Errorf("create doses: %w", err)
	}
	return nil
}

// FetchDosesForToday trae el día completo en la zona del cliente.
func (c *Client) FetchDosesForToday(ctx context.Context) ([]notifier.Dose, error) {
	q := url.Values{}
	q.Set("tz", c.loc.String())

	var items []doseItem
	if err := c.http.DoJSON(ctx, http.MethodGet, "/doses/me?"+q.Encode(), c.headers(), nil, &items); err != nil {
		return nil, fmt.Errorf("fetch doses: %w", err)
	}

	out := make([]notifier.Dose, 0, len(items))
	for _, it := range items {
		d := notifier.Dose{ID: it.ID, ScheduledAt: it.ScheduledAt.UTC(), Taken: it.Taken}
		if it.Medication != nil {
			d.Medication = notifier.Medication{
				Name:       it.Medication.Name,
				DoseAmount: it.Medication.DoseAmount,
				Color:      it.Medication.Color,
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) MarkDoseTaken(ctx context.Context, doseID string) error {
	p := "/doses/" + url.PathEscape(doseID) + "/taken"
	err := c.http.DoJSON(ctx, http.MethodPost, p, c.headers(), nil, nil)
	if httpclient.StatusCode(err) == http.StatusNotFound {
		return notifier.ErrDoseGone
	}
	if err != nil {
		return fmt.Errorf("mark dose taken: %w", err)
	}
	return nil
}
