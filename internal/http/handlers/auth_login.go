package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

type loginRequest struct {
	// ID acepta publicId de 8 dígitos o email.
	ID       string `json:"id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login maneja POST /v1/auth/login. Si el usuario exige TOTP devuelve
// el challenge en lugar del par de tokens.
func Login(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		id := req.ID
		if id == "" {
			id = req.Email
		}
		res, err := c.Auth.Login(r.Context(), id, req.Password)
		if err != nil {
			httpx.CountAuthFlow("login", "failure")
			writeServiceError(w, err)
			return
		}
		if res.MFARequired {
			httpx.CountAuthFlow("login", "mfa_challenge")
			writeMFAChallenge(w, res)
			return
		}
		httpx.CountAuthFlow("login", "success")
		writeSession(w, c, http.StatusOK, "login exitoso", res.Session)
	}
}
