// Package repository define las entidades persistidas y los contratos
// que los drivers de storage deben cumplir.
package repository

import "errors"

// Errores canónicos del storage. Los drivers (mongo, memory) los mapean
// desde sus errores nativos; la capa de servicio solo conoce estos.
var (
	// ErrNotFound indica que el registro no existe.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict indica violación de índice único (email, publicId, phone,
	// subject federado). Incluye la colisión de publicId derivado.
	ErrConflict = errors.New("repository: conflict")
)
