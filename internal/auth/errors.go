package auth

import "errors"

// Errores de flujo. El boundary HTTP los traduce a status codes; cualquier
// otro error es interno y sale como 500 genérico con la causa logueada.
var (
	// ErrValidation: input faltante o malformado (400).
	ErrValidation = errors.New("auth: validation failed")

	// ErrConflict: email/teléfono/publicId ya reclamados (409).
	ErrConflict = errors.New("auth: identity already exists")

	// ErrNotFound: usuario o token inexistente (404).
	ErrNotFound = errors.New("auth: not found")

	// ErrInvalidCredentials: login fallido. Deliberadamente no distingue
	// usuario desconocido de password incorrecto (401).
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidOrExpiredToken: refresh inexistente, revocado o vencido.
	// Una sola salida para las tres causas (sin oráculo).
	ErrInvalidOrExpiredToken = errors.New("auth: invalid or expired token")

	// ErrTokenUsed: reset token ya consumido.
	ErrTokenUsed = errors.New("auth: token already used")

	// ErrTokenExpired: reset token vencido (1h).
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrInvalidCode: código TOTP rechazado (401).
	ErrInvalidCode = errors.New("auth: invalid totp code")
)
