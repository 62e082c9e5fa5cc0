// Package store arma el conjunto de repositorios según el driver
// configurado. Drivers: "mongo" (producción) y "memory" (dev/tests).
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	"github.com/dropDatabas3/tasknest/internal/store/memory"
	storemongo "github.com/dropDatabas3/tasknest/internal/store/mongo"
)

// Config del storage.
type Config struct {
	Driver   string // "mongo" | "memory"
	MongoURI string
	Database string
}

// Repositories agrupa los repos que consume la capa de servicio.
type Repositories struct {
	Users         repository.UserRepository
	RefreshTokens repository.RefreshTokenRepository
	ResetTokens   repository.PasswordResetTokenRepository
	Projects      repository.ProjectRepository

	closer func(context.Context) error
}

// Close libera la conexión subyacente (no-op para memory).
func (r *Repositories) Close(ctx context.Context) error {
	if r.closer == nil {
		return nil
	}
	return r.closer(ctx)
}

// New conecta el driver y devuelve los repositorios listos.
func New(ctx context.Context, cfg Config) (*Repositories, error) {
	switch cfg.Driver {
	case "mongo", "":
		st, err := storemongo.Connect(ctx, cfg.MongoURI, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("store: mongo connect: %w", err)
		}
		return &Repositories{
			Users:         st.Users(),
			RefreshTokens: st.RefreshTokens(),
			ResetTokens:   st.ResetTokens(),
			Projects:      st.Projects(),
			closer:        st.Close,
		}, nil
	case "memory":
		st := memory.New()
		return &Repositories{
			Users:         st.Users(),
			RefreshTokens: st.RefreshTokens(),
			ResetTokens:   st.ResetTokens(),
			Projects:      st.Projects(),
		}, nil
	default:
		return nil, fmt.Errorf("store: driver desconocido %q", cfg.Driver)
	}
}
