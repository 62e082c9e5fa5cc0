package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

// Healthz: liveness plano, sin dependencias.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Readyz reporta la disponibilidad de las dependencias. El cache no es
// autoritativo: su caída degrada pero no corta el ready.
func Readyz(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cacheStatus := "ok"
		if c.Cache != nil {
			if err := c.Cache.Ping(r.Context()); err != nil {
				cacheStatus = "degraded"
			}
		} else {
			cacheStatus = "disabled"
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"cache":  cacheStatus,
		})
	}
}
