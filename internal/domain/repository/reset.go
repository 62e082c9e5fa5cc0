package repository

import (
	"context"
	"time"
)

// PasswordResetToken es un token de reset de un solo uso, 1h de vida.
// Igual que el refresh: en reposo solo el hash.
type PasswordResetToken struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	TokenHash string    `bson:"tokenHash"`
	ExpiresAt time.Time `bson:"expiresAt"`
	Used      bool      `bson:"used"`
	CreatedAt time.Time `bson:"createdAt"`
}

// PasswordResetTokenRepository persiste los tokens de reset. No hay
// garbage-collection activa: las filas vencidas quedan (aceptado).
type PasswordResetTokenRepository interface {
	// Create inserta un token nuevo para el usuario.
	Create(ctx context.Context, t *PasswordResetToken) error

	// GetByHash busca por hash. ErrNotFound si no existe.
	GetByHash(ctx context.Context, tokenHash string) (*PasswordResetToken, error)

	// MarkUsed marca el token como consumido. Se llama DESPUÉS de aplicar
	// el cambio de credencial: si el cambio falla, el token sigue vivo.
	MarkUsed(ctx context.Context, id string) error
}
