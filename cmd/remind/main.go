// remind es el cliente de terminal: da de alta recordatorios y muestra las alertas de dosis.
//
//	remind add -name Dipirona -amount 500 -unit mg -freq 4 -days 3 -date 2025-01-01 -time 08:00
//	remind watch
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"med-reminder/internal/adapters/remote/medapi"
	"med-reminder/internal/config"
	"med-reminder/internal/notifier"
	"med-reminder/internal/palette"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/reminders"
	"med-reminder/internal/schedule"

	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/base.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.NewFromEnv()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "add":
		err = runAdd(ctx, cfg, log, os.Args[2:])
	case "watch":
		err = runWatch(ctx, cfg, log, os.Args[2:])
	case "colors":
		for _, s := range palette.All() {
			fmt.Printf("%-12s %s\n", s.Name, s.Hex)
		}
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: remind <add|watch|colors> [flags]")
}

func newAPI(cfg config.Config, tz string) (*medapi.Client, *time.Location, error) {
	loc := cfg.Location()
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, nil, fmt.Errorf("tz: %w", err)
		}
		loc = l
	}

	api, err := medapi.New(medapi.Options{
		BaseURL:  cfg.Client.BaseURL,
		Token:    cfg.Client.Token,
		UserID:   cfg.Client.UserID,
		Timeout:  cfg.Client.Timeout,
		Location: loc,
	})
	return api, loc, err
}

func runAdd(ctx context.Context, cfg config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	var (
		req     reminders.Request
		color   string
		expires string
		tz      string
	)
	fs.StringVar(&req.Medication.Name, "name", "", "nombre del medicamento")
	fs.StringVar(&req.Medication.Classification, "class", "", "clasificación")
	fs.StringVar(&color, "color", string(palette.Fallback), "color (ver: remind colors)")
	fs.Float64Var(&req.Medication.DoseAmount, "amount", 0, "cantidad por dosis")
	fs.StringVar(&req.Medication.DoseUnit, "unit", "", "unidad (mg, comp., ml)")
	fs.IntVar(&req.Medication.BoxQuantity, "box", 0, "unidades en la caja")
	fs.StringVar(&expires, "expires", "", "vencimiento YYYY-MM-DD")
	fs.IntVar(&req.Medication.DailyFrequency, "freq", 0, "veces por día")
	fs.Float64Var(&req.IntervalHours, "interval", 0, "horas entre dosis (pisa -freq)")
	fs.IntVar(&req.Medication.TreatmentDays, "days", 0, "días de tratamiento")
	fs.StringVar(&req.Medication.Reason, "reason", "", "motivo")
	fs.StringVar(&req.Medication.Note, "note", "", "nota")
	fs.StringVar(&req.FirstDoseDate, "date", "", "primera dosis YYYY-MM-DD (por defecto hoy)")
	fs.StringVar(&req.FirstDoseTime, "time", "", "primera dosis HH:MM")
	fs.StringVar(&tz, "tz", "", "zona IANA (por defecto app.timezone)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	api, loc, err := newAPI(cfg, tz)
	if err != nil {
		return err
	}
	req.Location = loc
	req.Medication.Color = palette.Color(color)
	if req.FirstDoseDate == "" {
		req.FirstDoseDate = time.Now().In(loc).Format(schedule.DateLayout)
	}
	if expires != "" {
		t, err := time.Parse(schedule.DateLayout, expires)
		if err != nil {
			return fmt.Errorf("expires: %w", err)
		}
		req.Medication.ExpirationDate = &t
	}

	res, err := reminders.NewPlanner(api, log).Save(ctx, req)
	var partial *reminders.PartialSaveError
	switch {
	case errors.As(err, &partial):
		return fmt.Errorf("medicamento %s guardado sin dosis: %w", partial.MedicationID, err)
	case err != nil:
		return err
	}

	fmt.Printf("medicamento %s: %d dosis, la primera %s\n",
		res.MedicationID, len(res.Doses), res.FirstDoseAt.In(loc).Format("2006-01-02 15:04"))
	return nil
}

func runWatch(ctx context.Context, cfg config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	tz := fs.String("tz", "", "zona IANA (por defecto app.timezone)")
	every := fs.Duration("every", cfg.Alerts.RefreshEvery, "cada cuánto refrescar las dosis")
	if err := fs.Parse(args); err != nil {
		return err
	}

	api, loc, err := newAPI(cfg, *tz)
	if err != nil {
		return err
	}

	n := notifier.New(api, notifier.Options{
		Logger:         log,
		RequestTimeout: cfg.Alerts.RequestTimeout,
		OnAlert: func(a notifier.Alert) {
			fmt.Printf("\n*** %s  %s  %s (%s)  Enter para confirmar ***\n",
				a.ScheduledAt.In(loc).Format("15:04"), a.MedicationName, a.DoseAmount, a.Color)
		},
	})

	go ackFromStdin(ctx, n, os.Stdin)

	fmt.Println("esperando dosis... (Ctrl+C para salir)")
	if err := n.Run(ctx, *every); err != nil && !errors.Is(err, notifier.ErrClosed) {
		return err
	}
	return nil
}

// ackFromStdin confirma la alerta visible con cada línea leída.
func ackFromStdin(ctx context.Context, n *notifier.Notifier, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		a, ok := n.Current()
		if !ok {
			continue
		}
		if err := n.Acknowledge(ctx, a.DoseID); err != nil {
			fmt.Println("no se pudo confirmar:", strings.TrimSpace(err.Error()))
			continue
		}
		fmt.Printf("%s confirmada\n", a.MedicationName)
	}
}
