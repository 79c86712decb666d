package router

import (
	"database/sql"
	"net/http"
	"time"

	_ "med-reminder/docs"
	mem "med-reminder/internal/adapters/storage/memory"
	pg "med-reminder/internal/adapters/storage/postgres"
	"med-reminder/internal/domain/alerts"
	"med-reminder/internal/domain/doses"
	"med-reminder/internal/domain/medications"
	"med-reminder/internal/middleware"
	"med-reminder/internal/platform/logger"
	"med-reminder/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	// Opcional: cache de "dosis del día" (Redis).
	Cache doses.DayCache

	Logger *zap.Logger

	// Zona por defecto para /doses/me y para las sesiones de alertas.
	Location *time.Location

	Alerts alerts.Options

	// Now reemplaza el reloj de los servicios (tests).
	Now func() time.Time
}

// App agrupa el handler HTTP con lo que main tiene que arrancar/parar.
type App struct {
	Handler http.Handler
	Alerts  *alerts.Manager
}

func NewRouter(opts Options) http.Handler {
	return Build(opts).Handler
}

func Build(opts Options) *App {
	log := logger.OrNop(opts.Logger)
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(log))
	r.Use(middleware.Metrics(log))

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var (
		medRepo  medications.Repository
		doseRepo doses.Repository
	)
	if opts.DB != nil {
		medRepo = pg.NewMedicationsRepo(opts.DB)
		doseRepo = pg.NewDosesRepo(opts.DB)
	} else {
		medRepo = mem.NewMedicationRepo()
		doseRepo = mem.NewDoseRepo()
	}

	// doses depende del repo de medicamentos (no del service) para no cerrar un ciclo:
	// medications borra en cascada a través de dosesSvc.
	dosesSvc := doses.NewService(doseRepo, medRepo, opts.Cache, log.Named("doses"))
	if opts.Now != nil {
		dosesSvc.WithNow(opts.Now)
	}
	medsSvc := medications.NewService(medRepo, dosesSvc, log.Named("medications"))

	alertOpts := opts.Alerts
	if alertOpts.Location == nil {
		alertOpts.Location = loc
	}
	if alertOpts.Logger == nil {
		alertOpts.Logger = log.Named("alerts")
	}
	manager := alerts.NewManager(dosesSvc, alertOpts)

	// Rutas por módulo
	medications.RegisterRoutes(r, medsSvc)
	doses.RegisterRoutes(r, dosesSvc, loc)
	alerts.RegisterRoutes(r, manager)

	return &App{Handler: r, Alerts: manager}
}
