package alerts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"med-reminder/internal/middleware"
	"med-reminder/internal/notifier"
	"med-reminder/internal/palette"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, m *Manager) {
	r.Route("/me/alerts", func(ar chi.Router) {
		ar.Get("/", currentAlertHandler(m))
		ar.Post("/{doseID}/ack", ackAlertHandler(m))

		// Logout: descarta la sesión y sus timers
		ar.Delete("/", closeAlertsHandler(m))
	})

	r.Get("/colors", listColorsHandler())
}

// alertResponse es la alerta a pantalla completa que el cliente debe mostrar.
type alertResponse struct {
	DoseID         string        `json:"dose_id"`
	MedicationName string        `json:"medication_name"`
	DoseAmount     string        `json:"dose_amount"`
	Color          palette.Color `json:"color"`
	ColorHex       string        `json:"color_hex"`
	ScheduledAt    time.Time     `json:"scheduled_at"`
	ShownAt        time.Time     `json:"shown_at"`
	State          string        `json:"state"`
}

// currentAlertHandler godoc
// @Summary Alerta actual
// @Description Devuelve la alerta de dosis que hay que mostrar ahora. Abre la sesión del usuario si no existe. 204 si no hay ninguna alerta.
// @Tags alerts
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} alertResponse
// @Success 204 "sin alerta"
// @Failure 401 {string} string "unauthorized"
// @Failure 502 {string} string "no se pudieron obtener las dosis"
// @Router /me/alerts [get]
func currentAlertHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, shown, err := m.Current(r.Context(), claims.UserID)
		if err != nil {
			writeAlertError(w, err)
			return
		}
		if !shown {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		writeJSON(w, http.StatusOK, toAlertResponse(a, m.State(claims.UserID)))
	}
}

// ackAlertHandler godoc
// @Summary Confirmar dosis
// @Description Confirma la alerta: marca la dosis como tomada y libera el slot para la siguiente. Confirmar dos veces, o una dosis que ya no existe, no es error. Si falla el guardado, la alerta sigue visible.
// @Tags alerts
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param doseID path string true "ID de la dosis"
// @Success 204 "confirmada"
// @Failure 400 {string} string "dose id inválido"
// @Failure 401 {string} string "unauthorized"
// @Failure 502 {string} string "no se pudo marcar la dosis"
// @Router /me/alerts/{doseID}/ack [post]
func ackAlertHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := m.Acknowledge(r.Context(), claims.UserID, chi.URLParam(r, "doseID")); err != nil {
			writeAlertError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// closeAlertsHandler godoc
// @Summary Cerrar sesión de alertas
// @Description Cancela todos los recordatorios armados del usuario. La próxima consulta abre una sesión nueva.
// @Tags alerts
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Success 204 "cerrada"
// @Failure 401 {string} string "unauthorized"
// @Router /me/alerts [delete]
func closeAlertsHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		m.Close(claims.UserID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// listColorsHandler godoc
// @Summary Paleta de colores
// @Description Colores disponibles para identificar un medicamento (nombre y hex), en el orden del selector.
// @Tags colors
// @Produce json
// @Success 200 {array} palette.Swatch
// @Router /colors [get]
func listColorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, palette.All())
	}
}

func writeAlertError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, notifier.ErrInvalidInput):
		http.Error(w, "invalid dose id", http.StatusBadRequest)
	case errors.Is(err, notifier.ErrPersistence):
		http.Error(w, "dose store unavailable", http.StatusBadGateway)
	case errors.Is(err, notifier.ErrClosed):
		http.Error(w, "session closed", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAlertResponse(a notifier.Alert, st notifier.State) alertResponse {
	return alertResponse{
		DoseID:         a.DoseID,
		MedicationName: a.MedicationName,
		DoseAmount:     a.DoseAmount,
		Color:          a.Color,
		ColorHex:       a.ColorHex,
		ScheduledAt:    a.ScheduledAt,
		ShownAt:        a.ShownAt,
		State:          st.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
