package repository

import (
	"context"
	"time"
)

// Project es el recurso mínimo que este servicio expone: existe acá
// porque crear el primer proyecto promueve al creador a Admin.
type Project struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	OwnerID     string    `bson:"ownerId"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// ProjectRepository define operaciones sobre proyectos.
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id string) (*Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Project, error)
	Delete(ctx context.Context, id string) error
}
