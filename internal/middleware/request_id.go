package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestID va después de chimw.RequestID: devuelve el id al cliente para poder cruzarlo con los logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func RequestIDField(ctx context.Context) zap.Field {
	return zap.String("request_id", chimw.GetReqID(ctx))
}
