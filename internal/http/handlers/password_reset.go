package handlers

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/tasknest/internal/app"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

// CreateResetToken maneja POST /v1/auth/password-reset-token. El token
// crudo sale una sola vez, acá; después solo existe su hash.
func CreateResetToken(c *app.Container) http.HandlerFunc {
	type request struct {
		UserID string `json:"userId"`
	}
	type response struct {
		Message   string    `json:"message"`
		Token     string    `json:"token"`
		UserID    string    `json:"userId"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		raw, rec, err := c.Auth.CreateResetToken(r.Context(), req.UserID)
		if err != nil {
			httpx.CountAuthFlow("reset_create", "failure")
			writeServiceError(w, err)
			return
		}
		httpx.CountAuthFlow("reset_create", "success")
		httpx.WriteJSON(w, http.StatusCreated, response{
			Message:   "reset token creado",
			Token:     raw,
			UserID:    rec.UserID,
			ExpiresAt: rec.ExpiresAt,
		})
	}
}

// VerifyResetToken maneja POST /v1/auth/verify-password-reset-token.
// Read-only: valida sin consumir.
func VerifyResetToken(c *app.Container) http.HandlerFunc {
	type request struct {
		Token string `json:"token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if err := c.Auth.VerifyResetToken(r.Context(), req.Token); err != nil {
			writeServiceError(w, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "token válido"})
	}
}

// UseResetToken maneja POST /v1/auth/use-password-reset-token: consume
// el token y aplica el password nuevo.
func UseResetToken(c *app.Container) http.HandlerFunc {
	type request struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if err := c.Auth.UseResetToken(r.Context(), req.Token, req.NewPassword); err != nil {
			httpx.CountAuthFlow("reset_use", "failure")
			writeServiceError(w, err)
			return
		}
		httpx.CountAuthFlow("reset_use", "success")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "password actualizado"})
	}
}
