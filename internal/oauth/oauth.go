// Package oauth define el oráculo de identidad federada: dado un token
// del proveedor, devuelve una identidad verificada o falla. El servicio
// de auth no sabe nada de JWKS ni de APIs de proveedores.
package oauth

import "context"

// Identity es la tupla verificada que devuelve un proveedor.
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// Verifier verifica el token que el cliente obtuvo del proveedor.
type Verifier interface {
	Verify(ctx context.Context, providerToken string) (*Identity, error)
}
