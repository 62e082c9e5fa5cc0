package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dropDatabas3/tasknest/internal/app"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

// NewRouter arma el árbol de rutas completo sobre chi.
func NewRouter(c *app.Container) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpx.WithRequestID)
	r.Use(httpx.WithMetrics)
	r.Use(httpx.WithAccessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz())
	r.Get("/readyz", Readyz(c))
	r.Handle("/metrics", httpx.RegisterMetrics(nil))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// públicos
			r.Post("/register", Register(c))
			r.Post("/login", Login(c))
			r.Post("/refresh-token", Refresh(c))
			r.Post("/google", Federated(c, repository.ProviderGoogle))
			r.Post("/github", Federated(c, repository.ProviderGithub))
			r.Post("/password-reset-token", CreateResetToken(c))
			r.Post("/verify-password-reset-token", VerifyResetToken(c))
			r.Post("/use-password-reset-token", UseResetToken(c))
			// dual: challenge MFA (sin sesión) o chequeo autenticado
			r.Post("/verify/totp", VerifyTOTP(c))

			// autenticados
			r.Group(func(r chi.Router) {
				r.Use(httpx.Auth(c.Issuer, c.Users))
				r.Post("/logout", Logout(c))
				r.Post("/revoke-refresh-token", Revoke(c))
				r.Post("/totp/enable", EnableTOTP(c))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(httpx.Auth(c.Issuer, c.Users))
			r.Get("/me", Me(c))

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", CreateProject(c))
				r.Get("/", ListProjects(c))
				r.Get("/{id}", GetProject(c))
				r.With(httpx.RequireAdmin).Delete("/{id}", DeleteProject(c))
			})
		})
	})

	return r
}
