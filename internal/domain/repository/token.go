package repository

import (
	"context"
	"time"
)

// RefreshToken es el registro persistido de un refresh token. Solo se
// guarda el hash SHA-256 del token; el valor crudo viaja una vez en la
// cookie y no se puede reconstruir desde acá.
type RefreshToken struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	TokenHash string    `bson:"tokenHash"`
	ExpiresAt time.Time `bson:"expiresAt"`
	Revoked   bool      `bson:"revoked"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Usable reporta si el registro sigue siendo canjeable a tiempo now.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// RefreshTokenRepository mantiene a lo sumo un registro vivo por usuario:
// Upsert pisa el hash anterior, lo que invalida semánticamente el refresh
// token previo (two logins concurrentes => gana el último escritor).
type RefreshTokenRepository interface {
	// Upsert crea o sobreescribe el registro del usuario.
	Upsert(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash busca por hash. ErrNotFound si no existe. El caller hashea
	// el token presentado antes de consultar.
	GetByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Revoke marca revocado el registro con ese hash. ErrNotFound si no existe.
	Revoke(ctx context.Context, tokenHash string) error
}
