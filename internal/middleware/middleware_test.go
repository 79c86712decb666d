package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"med-reminder/internal/platform/metrics"
	"med-reminder/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token == "good" {
		return auth.Claims{UserID: "u1"}, nil
	}
	return auth.Claims{}, errors.New("bad token")
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	c, ok := GetClaims(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	_, _ = w.Write([]byte(c.UserID))
}

func TestAuthContext_DebugHeaderWithoutVerifier(t *testing.T) {
	h := AuthContext(nil, nil)(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DebugUserHeader, " u9 ")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u9", rr.Body.String())
}

func TestAuthContext_Bearer(t *testing.T) {
	h := AuthContext(stubVerifier{}, nil)(http.HandlerFunc(whoAmI))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
		{"invalid token", "Bearer bad", http.StatusUnauthorized},
		{"no header", "", http.StatusUnauthorized},
		{"basic", "Basic good", http.StatusUnauthorized},
		{"bearer without token", "Bearer   ", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			// con verifier el header de debug se ignora
			req.Header.Set(DebugUserHeader, "intruder")
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestAuthContext_RejectedTokenIsLoggedAndCounted(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := chi.NewRouter()
	r.Use(chimw.RequestID, RequestID, AuthContext(stubVerifier{}, zap.New(core)))
	r.Get("/me", whoAmI)

	invalid := metrics.AuthFailures.WithLabelValues("invalid_token")
	malformed := metrics.AuthFailures.WithLabelValues("malformed_header")
	beforeInvalid := testutil.ToFloat64(invalid)
	beforeMalformed := testutil.ToFloat64(malformed)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, beforeInvalid+1, testutil.ToFloat64(invalid))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "token rejected", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, rr.Header().Get(RequestIDHeader), fields["request_id"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, "/me", fields["path"])

	// esquema desconocido: cuenta, pero no es warn
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, beforeMalformed+1, testutil.ToFloat64(malformed))
	assert.Equal(t, 1, logs.Len())

	// token válido: ni log ni contador
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, "u1", rr.Body.String())
	assert.Equal(t, beforeInvalid+1, testutil.ToFloat64(invalid))
	assert.Equal(t, 1, logs.Len())
}

func TestRecover_LogsAndReturns500(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := chi.NewRouter()
	r.Use(chimw.RequestID, RequestID, Recover(zap.New(core)))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := chi.NewRouter()
	r.Use(Metrics(zap.New(core)))
	r.Get("/doses/{doseID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/doses/abc", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/doses/{doseID}", fields["route"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}
