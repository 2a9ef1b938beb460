package repository

import (
	"context"

	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los métodos de listado reciben orgID obligatorio: no existe listado sin tenant.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// GetByID devuelve (nil, nil) si no existe. Lo usa el guard para cargar al principal.
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetInOrg devuelve (nil, nil) si el usuario no existe o pertenece a otra organización.
	GetInOrg(ctx context.Context, orgID, id string) (*entity.User, error)
	ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*entity.User, error)
	UpdateSubmodulePermissions(ctx context.Context, orgID, id string, perms map[string]map[string][]string) error
}
