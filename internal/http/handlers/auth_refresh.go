package handlers

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/tasknest/internal/app"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

type refreshRequest struct {
	Token string `json:"token"`
}

// refreshTokenFrom saca el refresh del body o, si no vino, de la cookie.
func refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req refreshRequest
	if !httpx.ReadJSON(w, r, &req) {
		return "", false
	}
	if req.Token != "" {
		return req.Token, true
	}
	if ck, err := r.Cookie(httpx.RefreshCookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	httpx.WriteError(w, http.StatusBadRequest, "validation_error", "falta el refresh token")
	return "", false
}

// Refresh maneja POST /v1/auth/refresh-token. Reemite solo el access
// token; el refresh no rota.
func Refresh(c *app.Container) http.HandlerFunc {
	type response struct {
		AccessToken string    `json:"accessToken"`
		ExpiresAt   time.Time `json:"expiresAt"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := refreshTokenFrom(w, r)
		if !ok {
			return
		}
		access, exp, err := c.Auth.RefreshAccess(r.Context(), raw)
		if err != nil {
			httpx.CountAuthFlow("refresh", "failure")
			writeServiceError(w, err)
			return
		}
		httpx.CountAuthFlow("refresh", "success")
		w.Header().Set("Authorization", "Bearer "+access)
		w.Header().Set("Cache-Control", "no-store")
		httpx.WriteJSON(w, http.StatusOK, response{AccessToken: access, ExpiresAt: exp})
	}
}
