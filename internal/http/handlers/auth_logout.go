package handlers

import (
	"fmt"
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

// Logout maneja POST /v1/auth/logout (autenticado). Idempotente: borra
// la cookie e invalida la pista de sesión cacheada, best-effort. No toca
// el refresh persistido; para eso está revoke-refresh-token.
func Logout(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, _ := httpx.UserFrom(r.Context())
		if u != nil && c.Cache != nil {
			_ = c.Cache.Delete(r.Context(), fmt.Sprintf("user:%s:session", u.ID))
		}
		http.SetCookie(w, httpx.BuildDeletionCookie(c.CookieSecure))
		httpx.CountAuthFlow("logout", "success")
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logout exitoso"})
	}
}
