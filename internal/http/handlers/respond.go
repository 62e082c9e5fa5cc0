// Package handlers implementa los endpoints de /v1. Cada handler es un
// constructor que recibe el Container y devuelve un http.HandlerFunc,
// para que el cableado quede entero en el router.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dropDatabas3/tasknest/internal/app"
	"github.com/dropDatabas3/tasknest/internal/auth"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

// userDTO es la vista pública del usuario. credentialHash y totpSecret
// jamás salen por acá.
type userDTO struct {
	ID           string `json:"id"`
	PublicID     string `json:"publicId"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Provider     string `json:"provider"`
	IsVerified   bool   `json:"isVerified"`
	TOTPRequired bool   `json:"totpRequired"`

	Name        string `json:"name,omitempty"`
	Gender      string `json:"gender,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func sanitizeUser(u *repository.User) userDTO {
	return userDTO{
		ID:           u.ID,
		PublicID:     u.PublicID,
		Email:        u.Email,
		Role:         string(u.Role),
		Provider:     string(u.Provider),
		IsVerified:   u.IsVerified,
		TOTPRequired: u.TOTPRequired,
		Name:         u.Name,
		Gender:       u.Gender,
		DateOfBirth:  u.DateOfBirth,
		PhoneNumber:  u.PhoneNumber,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
	}
}

// sessionResponse es el shape común de register/login/federated/totp.
type sessionResponse struct {
	Message string  `json:"message"`
	User    userDTO `json:"user"`
	Token   string  `json:"token"`
	// EnrollmentURI solo en el registro (otpauth:// para el QR).
	EnrollmentURI string `json:"enrollmentUri,omitempty"`
}

// writeSession responde una sesión abierta: access en header y body,
// refresh solo en la cookie.
func writeSession(w http.ResponseWriter, c *app.Container, status int, msg string, sess *auth.Session) {
	http.SetCookie(w, httpx.BuildRefreshCookie(sess.RefreshToken, c.CookieSecure, time.Until(sess.RefreshExpires)))
	w.Header().Set("Authorization", "Bearer "+sess.AccessToken)
	w.Header().Set("Cache-Control", "no-store")
	httpx.WriteJSON(w, status, sessionResponse{
		Message:       msg,
		User:          sanitizeUser(sess.User),
		Token:         sess.AccessToken,
		EnrollmentURI: sess.EnrollmentURI,
	})
}

// mfaChallengeResponse sale cuando el usuario exige TOTP en login.
type mfaChallengeResponse struct {
	Message        string `json:"message"`
	MFARequired    bool   `json:"mfaRequired"`
	ChallengeToken string `json:"challengeToken"`
}

func writeMFAChallenge(w http.ResponseWriter, res *auth.LoginResult) {
	w.Header().Set("Cache-Control", "no-store")
	httpx.WriteJSON(w, http.StatusOK, mfaChallengeResponse{
		Message:        "se requiere segundo factor",
		MFARequired:    true,
		ChallengeToken: res.ChallengeToken,
	})
}

// writeServiceError traduce los errores del service a status codes.
// Cualquier cosa fuera de la taxonomía sale como 500 genérico con la
// causa en el log, nunca en la respuesta.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, auth.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", "la identidad ya existe")
	case errors.Is(err, auth.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "no encontrado")
	case errors.Is(err, auth.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "credenciales inválidas")
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_or_expired_token", "token inválido o expirado")
	case errors.Is(err, auth.ErrTokenUsed):
		httpx.WriteError(w, http.StatusBadRequest, "token_used", "el token ya fue usado")
	case errors.Is(err, auth.ErrTokenExpired):
		httpx.WriteError(w, http.StatusBadRequest, "token_expired", "el token expiró")
	case errors.Is(err, auth.ErrInvalidCode):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", "código inválido")
	default:
		log.Printf(`{"level":"error","msg":"handler_internal_err","err":"%v"}`, err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "error interno")
	}
}
