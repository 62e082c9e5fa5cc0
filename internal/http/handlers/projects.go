package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/tasknest/internal/app"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

const projectCacheTTL = 60 * time.Second

type projectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toProjectDTO(p *repository.Project) projectDTO {
	return projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		CreatedAt:   p.CreatedAt,
	}
}

// CreateProject maneja POST /v1/projects. Crear el primer proyecto
// promueve al creador de Member a Admin.
func CreateProject(c *app.Container) http.HandlerFunc {
	type request struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := httpx.UserFrom(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "token_missing", "token no provisto")
			return
		}
		var req request
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			httpx.WriteError(w, http.StatusBadRequest, "validation_error", "falta name")
			return
		}
		p := &repository.Project{
			ID:          uuid.NewString(),
			Name:        req.Name,
			Description: strings.TrimSpace(req.Description),
			OwnerID:     u.ID,
		}
		if err := c.Projects.Create(r.Context(), p); err != nil {
			writeServiceError(w, err)
			return
		}
		if u.Role == repository.RoleMember {
			if err := c.Users.UpdateRole(r.Context(), u.ID, repository.RoleAdmin); err != nil {
				// El proyecto ya existe; la promoción se reintenta en la
				// próxima creación.
				writeServiceError(w, fmt.Errorf("project promote: %w", err))
				return
			}
		}
		invalidateProjectCache(r, c, p.ID, u.ID)
		httpx.WriteJSON(w, http.StatusCreated, map[string]any{
			"message": "proyecto creado",
			"project": toProjectDTO(p),
		})
	}
}

// GetProject maneja GET /v1/projects/{id} con cache read-through (60s).
// Singleflight colapsa lecturas concurrentes de la misma key para no
// estampidar el store cuando el cache está frío.
func GetProject(c *app.Container) http.HandlerFunc {
	var sf singleflight.Group
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		key := "project:" + id
		v, err, _ := sf.Do(key, func() (any, error) {
			if c.Cache != nil {
				if s, err := c.Cache.Get(r.Context(), key); err == nil {
					return s, nil
				}
			}
			p, err := c.Projects.GetByID(r.Context(), id)
			if err != nil {
				return nil, err
			}
			b, err := json.Marshal(toProjectDTO(p))
			if err != nil {
				return nil, err
			}
			if c.Cache != nil {
				_ = c.Cache.Set(r.Context(), key, string(b), projectCacheTTL)
			}
			return string(b), nil
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "not_found", "proyecto no encontrado")
				return
			}
			writeServiceError(w, err)
			return
		}
		writeRawJSON(w, http.StatusOK, v.(string))
	}
}

// ListProjects maneja GET /v1/projects: los proyectos del usuario
// autenticado, con el mismo esquema de cache que el GET por id.
func ListProjects(c *app.Container) http.HandlerFunc {
	var sf singleflight.Group
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := httpx.UserFrom(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "token_missing", "token no provisto")
			return
		}
		key := "projects:owner:" + u.ID
		v, err, _ := sf.Do(key, func() (any, error) {
			if c.Cache != nil {
				if s, err := c.Cache.Get(r.Context(), key); err == nil {
					return s, nil
				}
			}
			ps, err := c.Projects.ListByOwner(r.Context(), u.ID)
			if err != nil {
				return nil, err
			}
			out := make([]projectDTO, 0, len(ps))
			for i := range ps {
				out = append(out, toProjectDTO(&ps[i]))
			}
			b, err := json.Marshal(map[string]any{"projects": out})
			if err != nil {
				return nil, err
			}
			if c.Cache != nil {
				_ = c.Cache.Set(r.Context(), key, string(b), projectCacheTTL)
			}
			return string(b), nil
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeRawJSON(w, http.StatusOK, v.(string))
	}
}

// DeleteProject maneja DELETE /v1/projects/{id} (solo Admin).
func DeleteProject(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := httpx.UserFrom(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "token_missing", "token no provisto")
			return
		}
		id := chi.URLParam(r, "id")
		if err := c.Projects.Delete(r.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "not_found", "proyecto no encontrado")
				return
			}
			writeServiceError(w, err)
			return
		}
		invalidateProjectCache(r, c, id, u.ID)
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "proyecto eliminado"})
	}
}

func invalidateProjectCache(r *http.Request, c *app.Container, projectID, ownerID string) {
	if c.Cache == nil {
		return
	}
	_ = c.Cache.Delete(r.Context(), "project:"+projectID)
	_ = c.Cache.Delete(r.Context(), "projects:owner:"+ownerID)
}

// writeRawJSON evita re-serializar lo que ya salió del cache como JSON.
func writeRawJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
