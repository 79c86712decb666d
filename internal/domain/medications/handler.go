package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"med-reminder/internal/middleware"
	"med-reminder/internal/palette"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))

		mr.Get("/{medicationID}", getMedicationHandler(svc))
		// Borra también las dosis
		mr.Delete("/{medicationID}", deleteMedicationHandler(svc))
	})
}

// createMedicationRequest es el formulario de alta de un medicamento.
type createMedicationRequest struct {
	Name           string        `json:"name"`
	Classification string        `json:"classification"`
	Color          palette.Color `json:"color" enums:"Vermelho,Azul,Amarelo,Laranja,Azul claro,Branco,Verde claro,Verde escuro,Preto,Orquídea"`
	DoseAmount     float64       `json:"dose_amount"`
	DoseUnit       string        `json:"dose_unit"`
	BoxQuantity    int           `json:"box_quantity"`
	ExpirationDate string        `json:"expiration_date"` // YYYY-MM-DD opcional
	DailyFrequency int           `json:"daily_frequency"`
	TreatmentDays  int           `json:"treatment_days"`
	Reason         string        `json:"reason"`
	Note           string        `json:"note"`
	FirstDoseAt    string        `json:"first_dose_at"` // RFC3339
}

// medicationResponse representa un medicamento devuelto por la API.
type medicationResponse struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Name           string        `json:"name"`
	Classification string        `json:"classification"`
	Color          palette.Color `json:"color"`
	ColorHex       string        `json:"color_hex"`
	DoseAmount     float64       `json:"dose_amount"`
	DoseUnit       string        `json:"dose_unit"`
	DoseLabel      string        `json:"dose_label"`
	BoxQuantity    int           `json:"box_quantity"`
	ExpirationDate *string       `json:"expiration_date,omitempty"`
	DailyFrequency int           `json:"daily_frequency"`
	TreatmentDays  int           `json:"treatment_days"`
	Reason         string        `json:"reason"`
	Note           string        `json:"note"`
	FirstDoseAt    time.Time     `json:"first_dose_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// createMedicationHandler godoc
// @Summary Crear medicamento
// @Description Registra un medicamento en el catálogo del usuario. Las dosis se crean después con POST /medications/{medicationID}/doses. Autenticación: `X-Debug-User-ID` (dev) o `Authorization: Bearer <token>` (prod).
// @Tags medications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createMedicationRequest true "Datos del medicamento; first_dose_at en RFC3339"
// @Success 201 {object} medicationResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /medications [post]
func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		first, err := time.Parse(time.RFC3339, strings.TrimSpace(req.FirstDoseAt))
		if err != nil {
			http.Error(w, "first_dose_at must be RFC3339", http.StatusBadRequest)
			return
		}

		var exp *time.Time
		if strings.TrimSpace(req.ExpirationDate) != "" {
			t, err := time.Parse("2006-01-02", strings.TrimSpace(req.ExpirationDate))
			if err != nil {
				http.Error(w, "expiration_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			exp = &t
		}

		m, err := svc.Create(r.Context(), claims.UserID, CreateInput{
			Name:           req.Name,
			Classification: req.Classification,
			Color:          req.Color,
			DoseAmount:     req.DoseAmount,
			DoseUnit:       req.DoseUnit,
			BoxQuantity:    req.BoxQuantity,
			ExpirationDate: exp,
			DailyFrequency: req.DailyFrequency,
			TreatmentDays:  req.TreatmentDays,
			Reason:         req.Reason,
			Note:           req.Note,
			FirstDoseAt:    first,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toMedicationResponse(m))
	}
}

// listMedicationsHandler godoc
// @Summary Listar mis medicamentos
// @Description Lista los medicamentos del usuario autenticado, por fecha de alta.
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {array} medicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /medications [get]
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByUser(r.Context(), claims.UserID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]medicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, toMedicationResponse(m))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getMedicationHandler godoc
// @Summary Obtener medicamento
// @Tags medications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Success 200 {object} medicationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [get]
func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m, err := svc.GetOwned(r.Context(), chi.URLParam(r, "medicationID"), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "medication not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toMedicationResponse(m))
	}
}

// deleteMedicationHandler godoc
// @Summary Borrar medicamento
// @Description Borra el medicamento y todas sus dosis.
// @Tags medications
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param medicationID path string true "ID del medicamento"
// @Success 204 "sin contenido"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "medication not found"
// @Failure 500 {string} string "internal error"
// @Router /medications/{medicationID} [delete]
func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), chi.URLParam(r, "medicationID"), claims.UserID); err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "medication not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func toMedicationResponse(m Medication) medicationResponse {
	var exp *string
	if m.ExpirationDate != nil {
		s := m.ExpirationDate.Format("2006-01-02")
		exp = &s
	}
	return medicationResponse{
		ID:             m.ID,
		UserID:         m.UserID,
		Name:           m.Name,
		Classification: m.Classification,
		Color:          m.Color,
		ColorHex:       palette.HexOf(m.Color),
		DoseAmount:     m.DoseAmount,
		DoseUnit:       m.DoseUnit,
		DoseLabel:      m.DoseLabel(),
		BoxQuantity:    m.BoxQuantity,
		ExpirationDate: exp,
		DailyFrequency: m.DailyFrequency,
		TreatmentDays:  m.TreatmentDays,
		Reason:         m.Reason,
		Note:           m.Note,
		FirstDoseAt:    m.FirstDoseAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// writeJSON está duplicado en cada módulo (medications/doses/alerts).
// Si aparece un cuarto, recién ahí conviene extraerlo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
