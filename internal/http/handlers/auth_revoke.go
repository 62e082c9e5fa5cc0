package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

// Revoke maneja POST /v1/auth/revoke-refresh-token (autenticado). Es el
// logout-everywhere: el refresh queda revocado en el store y la cookie
// se borra.
func Revoke(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := refreshTokenFrom(w, r)
		if !ok {
			return
		}
		if err := c.Auth.RevokeRefresh(r.Context(), raw); err != nil {
			httpx.CountAuthFlow("revoke", "failure")
			writeServiceError(w, err)
			return
		}
		http.SetCookie(w, httpx.BuildDeletionCookie(c.CookieSecure))
		httpx.CountAuthFlow("revoke", "success")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "refresh token revocado"})
	}
}
