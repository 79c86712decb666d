package doses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"med-reminder/internal/domain/medications"
	"med-reminder/internal/middleware"
	"med-reminder/internal/palette"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes: defaultLoc es la zona para "hoy" cuando el request no manda ?tz=.
func RegisterRoutes(r chi.Router, svc *Service, defaultLoc *time.Location) {
	r.Route("/medications/{medicationID}/doses", func(dr chi.Router) {
		dr.Post("/", createDosesHandler(svc))
		dr.Get("/", listMedicationDosesHandler(svc))
	})

	r.Route("/doses", func(dr chi.Router) {
		dr.Get("/me", todayDosesHandler(svc, defaultLoc))
		dr.Get("/history", historyHandler(svc))

		// Idempotente
		dr.Post("/{doseID}/taken", markTakenHandler(svc))
	})
}

// createDosesRequest es el lote de dosis generado por el cliente.
type createDosesRequest struct {
	UserID string   `json:"user_id"` // opcional; si viene debe coincidir con el usuario autenticado
	Doses  []string `json:"doses"`   // RFC3339, estrictamente crecientes
}

type createDosesResponse struct {
	MedicationID string         `json:"medication_id"`
	Count        int            `json:"count"`
	Doses        []doseResponse `json:"doses"`
}

type medicationSummary struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	DoseAmount string        `json:"dose_amount"`
	Color      palette.Color `json:"color"`
	ColorHex   string        `json:"color_hex"`
}

// doseResponse representa una dosis devuelta por la API.
type doseResponse struct {
	ID           string             `json:"id"`
	MedicationID string             `json:"medication_id"`
	ScheduledAt  time.Time          `json:"scheduled_at"`
	Taken        bool               `json:"taken"`
	TakenAt      *time.Time         `json:"taken_at,omitempty"`
	Medication   *medicationSummary `json:"medication,omitempty"`
}

// createDosesHandler godoc
// @Summary Crear lote de dosis
// @Description Crea todas las dosis de un medicamento en un único lote. Los horarios deben venir en RFC3339 y estrictamente crecientes. Un medicamento que ya tiene dosis devuelve 409.
// @Tags doses
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Param payload body createDosesRequest true "Horarios de las dosis"
// @Success 201 {object} createDosesResponse
// @Failure 400 {string} string "invalid json / horarios inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "medication already has doses"
// @Router /medications/{medicationID}/doses [post]
func createDosesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createDosesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if uid := strings.TrimSpace(req.UserID); uid != "" && uid != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		times := make([]time.Time, 0, len(req.Doses))
		for _, v := range req.Doses {
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
			if err != nil {
				http.Error(w, "doses must be RFC3339", http.StatusBadRequest)
				return
			}
			times = append(times, t)
		}

		medicationID := chi.URLParam(r, "medicationID")
		created, err := svc.CreateBatch(r.Context(), claims.UserID, medicationID, times)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		out := make([]doseResponse, 0, len(created))
		for _, d := range created {
			out = append(out, toDoseResponse(d, nil))
		}
		writeJSON(w, http.StatusCreated, createDosesResponse{
			MedicationID: medicationID,
			Count:        len(out),
			Doses:        out,
		})
	}
}

// listMedicationDosesHandler godoc
// @Summary Listar dosis de un medicamento
// @Tags doses
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Param limit query int false "Máximo de dosis (1-200). Por defecto 50"
// @Success 200 {array} doseResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /medications/{medicationID}/doses [get]
func listMedicationDosesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseHistoryFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.MedicationID = chi.URLParam(r, "medicationID")

		items, err := svc.History(r.Context(), claims.UserID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoseResponses(items))
	}
}

// todayDosesHandler godoc
// @Summary Dosis del día
// @Description Devuelve las dosis del día (tomadas o no) del usuario autenticado, ordenadas por horario. Con `upcoming=true` sólo desde ahora hasta el fin del día.
// @Tags doses
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param date query string false "Día YYYY-MM-DD (por defecto hoy)"
// @Param tz query string false "Zona IANA, ej: America/Sao_Paulo (por defecto la del server)"
// @Param upcoming query bool false "Sólo desde ahora"
// @Success 200 {array} doseResponse
// @Failure 400 {string} string "date o tz inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /doses/me [get]
func todayDosesHandler(svc *Service, defaultLoc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		loc := defaultLoc
		if tz := strings.TrimSpace(r.URL.Query().Get("tz")); tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				http.Error(w, "tz must be an IANA zone", http.StatusBadRequest)
				return
			}
			loc = l
		}
		upcoming, _ := strconv.ParseBool(r.URL.Query().Get("upcoming"))

		items, err := svc.ListForDay(r.Context(), claims.UserID, DayQuery{
			Date:         r.URL.Query().Get("date"),
			Location:     loc,
			UpcomingOnly: upcoming,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoseResponses(items))
	}
}

// historyHandler godoc
// @Summary Historial de dosis
// @Description Lista dosis del usuario, más recientes primero. Permite filtrar por rango, estado y medicamento.
// @Tags doses
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param from query string false "scheduled_at mínimo (RFC3339)"
// @Param to query string false "scheduled_at máximo, exclusivo (RFC3339)"
// @Param taken query bool false "true = tomadas, false = pendientes"
// @Param medication_id query string false "ID del medicamento"
// @Param limit query int false "Máximo de dosis (1-200). Por defecto 50"
// @Success 200 {array} doseResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /doses/history [get]
func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseHistoryFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.History(r.Context(), claims.UserID, filter)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoseResponses(items))
	}
}

// markTakenHandler godoc
// @Summary Marcar dosis como tomada
// @Description Marca la dosis como tomada. Repetir la llamada no cambia nada y devuelve 200.
// @Tags doses
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param doseID path string true "ID de la dosis"
// @Success 200 {object} doseResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "dose not found"
// @Failure 500 {string} string "internal error"
// @Router /doses/{doseID}/taken [post]
func markTakenHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		d, err := svc.MarkTaken(r.Context(), claims.UserID, chi.URLParam(r, "doseID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDoseResponse(d, nil))
	}
}

func parseHistoryFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := defaultHistory
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxHistory {
			limit = n
		}
	}
	filter := ListFilter{Limit: limit}

	// from/to RFC3339
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	if v := strings.TrimSpace(q.Get("taken")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ListFilter{}, errors.New("taken must be true or false")
		}
		filter.Taken = &b
	}

	filter.MedicationID = strings.TrimSpace(q.Get("medication_id"))
	return filter, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "dose not found", http.StatusNotFound)
	case errors.Is(err, medications.ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	case errors.Is(err, ErrAlreadyScheduled):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toDoseResponses(items []DoseView) []doseResponse {
	out := make([]doseResponse, 0, len(items))
	for _, v := range items {
		mi := v.Medication
		out = append(out, toDoseResponse(v.Dose, &mi))
	}
	return out
}

func toDoseResponse(d Dose, mi *MedicationInfo) doseResponse {
	resp := doseResponse{
		ID:           d.ID,
		MedicationID: d.MedicationID,
		ScheduledAt:  d.ScheduledAt,
		Taken:        d.Taken,
		TakenAt:      d.TakenAt,
	}
	if mi != nil {
		resp.Medication = &medicationSummary{
			ID:         mi.ID,
			Name:       mi.Name,
			DoseAmount: mi.DoseAmount,
			Color:      mi.Color,
			ColorHex:   palette.HexOf(mi.Color),
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
