package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

type totpRequest struct {
	Code string `json:"code"`
	// ChallengeToken completa un login con MFA pendiente. Sin él, el
	// endpoint es un chequeo simple sobre el usuario autenticado.
	ChallengeToken string `json:"challengeToken"`
}

// VerifyTOTP maneja POST /v1/auth/verify/totp. Dos modos:
//
//   - challengeToken + code: segundo paso del login con MFA; abre sesión.
//   - Bearer + code: chequeo del código contra el secreto del usuario.
//
// La ruta va fuera del grupo autenticado porque el primer modo ocurre
// antes de tener tokens de sesión.
func VerifyTOTP(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req totpRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.Code == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_error", "falta el código")
			return
		}

		if req.ChallengeToken != "" {
			sess, err := c.Auth.CompleteTOTP(r.Context(), req.ChallengeToken, req.Code)
			if err != nil {
				httpx.CountAuthFlow("totp_complete", "failure")
				writeServiceError(w, err)
				return
			}
			httpx.CountAuthFlow("totp_complete", "success")
			writeSession(w, c, http.StatusOK, "login exitoso", sess)
			return
		}

		u, ok := authenticatedUser(w, r, c)
		if !ok {
			return
		}
		if err := c.Auth.VerifyTOTP(r.Context(), u.ID, req.Code); err != nil {
			httpx.CountAuthFlow("totp_verify", "failure")
			writeServiceError(w, err)
			return
		}
		httpx.CountAuthFlow("totp_verify", "success")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "código válido"})
	}
}

// EnableTOTP maneja POST /v1/auth/totp/enable (autenticado): exige un
// código válido y prende el gate de login. Devuelve el otpauth:// por si
// el cliente necesita re-mostrar el QR.
func EnableTOTP(c *app.Container) http.HandlerFunc {
	type response struct {
		Message       string `json:"message"`
		EnrollmentURI string `json:"enrollmentUri,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := httpx.UserFrom(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "token_missing", "token no provisto")
			return
		}
		var req totpRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		if req.Code == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_error", "falta el código")
			return
		}
		if err := c.Auth.EnableTOTP(r.Context(), u.ID, req.Code); err != nil {
			httpx.CountAuthFlow("totp_enable", "failure")
			writeServiceError(w, err)
			return
		}
		uri, err := c.Auth.EnrollmentURI(r.Context(), u.ID)
		if err != nil {
			uri = "" // best-effort: el enable ya ocurrió
		}
		httpx.CountAuthFlow("totp_enable", "success")
		httpx.WriteJSON(w, http.StatusOK, response{Message: "totp habilitado", EnrollmentURI: uri})
	}
}

// authenticatedUser replica el chequeo del middleware Auth para el único
// endpoint que acepta requests con y sin sesión.
func authenticatedUser(w http.ResponseWriter, r *http.Request, c *app.Container) (*repository.User, bool) {
	raw := httpx.BearerToken(r)
	if raw == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "token_missing", "token no provisto")
		return nil, false
	}
	claims, err := c.Issuer.Verify(raw)
	if err != nil || claims.Scope != "" {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "token inválido")
		return nil, false
	}
	u, err := c.Users.GetByID(r.Context(), claims.Subject)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "token inválido")
		return nil, false
	}
	return u, true
}
