package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

// Me maneja GET /v1/me: el usuario autenticado, sin campos sensibles.
func Me(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := httpx.UserFrom(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "token_missing", "token no provisto")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": sanitizeUser(u)})
	}
}
