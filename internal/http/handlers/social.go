package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

type federatedRequest struct {
	ProviderToken string `json:"providerToken"`
}

// Federated maneja POST /v1/auth/google y /v1/auth/github. El provider
// viene fijado por la ruta; el body trae el token del proveedor.
func Federated(c *app.Container, provider repository.Provider) http.HandlerFunc {
	flow := "federated_" + string(provider)
	return func(w http.ResponseWriter, r *http.Request) {
		var req federatedRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		res, err := c.Auth.Federated(r.Context(), provider, req.ProviderToken)
		if err != nil {
			httpx.CountAuthFlow(flow, "failure")
			writeServiceError(w, err)
			return
		}
		if res.MFARequired {
			httpx.CountAuthFlow(flow, "mfa_challenge")
			writeMFAChallenge(w, res)
			return
		}
		httpx.CountAuthFlow(flow, "success")
		writeSession(w, c, http.StatusOK, "login federado exitoso", res.Session)
	}
}
