package app

import (
	"github.com/dropDatabas3/tasknest/internal/auth"
	"github.com/dropDatabas3/tasknest/internal/cache"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	"github.com/dropDatabas3/tasknest/internal/jwt"
)

// Container agrupa las dependencias que consumen los handlers. Se arma
// una vez en el arranque y es read-only de ahí en más.
type Container struct {
	Auth     *auth.Service
	Users    repository.UserRepository
	Projects repository.ProjectRepository
	Cache    cache.Client
	Issuer   *jwt.Issuer

	// CookieSecure apaga el flag Secure solo para http://localhost.
	CookieSecure bool
}
