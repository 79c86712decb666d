package middleware

import (
	"net/http"
	"runtime/debug"

	"med-reminder/internal/platform/logger"

	"go.uber.org/zap"
)

// Recover reemplaza a chi/middleware.Recoverer: loguea el panic con zap y responde 500.
// http.ErrAbortHandler se re-lanza para que net/http corte la conexión.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					RequestIDField(r.Context()),
					zap.ByteString("stack", debug.Stack()),
				)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
