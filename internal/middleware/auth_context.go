package middleware

import (
	"context"
	"net/http"
	"strings"

	"med-reminder/internal/platform/logger"
	"med-reminder/internal/platform/metrics"
	"med-reminder/internal/ports/auth"

	"go.uber.org/zap"
)

// DebugUserHeader identifica al usuario cuando el servidor corre sin verificador (desarrollo, CLI local).
const DebugUserHeader = "X-Debug-User-ID"

type ctxKey struct{}

// AuthContext resuelve el usuario del request y lo deja en el contexto.
// Nunca corta la cadena: los handlers de /medications, /doses y /me responden 401 si no hay claims.
//
// Con verifier, sólo cuenta el Bearer token y el header de debug se ignora.
// Un token rechazado se loguea con el request id y suma en auth_failures_total.
func AuthContext(verifier auth.AuthVerifier, log *zap.Logger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get(DebugUserHeader))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}
				next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), auth.Claims{UserID: uid})))
				return
			}

			header := r.Header.Get("Authorization")
			if strings.TrimSpace(header) == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				metrics.AuthFailures.WithLabelValues("malformed_header").Inc()
				log.Debug("authorization header ignored", RequestIDField(r.Context()))
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
				log.Warn("token rejected",
					RequestIDField(r.Context()),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func withClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(auth.Claims)
	return c, ok
}

// bearerToken: "Bearer <token>" (esquema sin distinguir mayúsculas).
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
