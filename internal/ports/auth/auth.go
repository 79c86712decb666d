// Package auth define lo que el router necesita saber del usuario autenticado.
package auth

import "context"

// Claims: UserID es el dueño de medicamentos, dosis y sesión de alertas.
type Claims struct {
	UserID string
	Email  string
}

// AuthVerifier valida un bearer token. Implementación: adapters/auth/jwtauth.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
