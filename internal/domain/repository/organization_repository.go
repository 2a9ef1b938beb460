package repository

import (
	"context"

	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
)

// OrganizationRepository define el puerto de persistencia para Organization (DIP).
// La implementación vive en infrastructure.
type OrganizationRepository interface {
	Create(ctx context.Context, org *entity.Organization) error
	// GetByID devuelve (nil, nil) si la organización no existe.
	GetByID(ctx context.Context, id string) (*entity.Organization, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Organization, error)
	// SetModule escribe una sola entrada de enabled_modules en un UPDATE atómico (last writer wins).
	SetModule(ctx context.Context, orgID, module string, ent entity.ModuleEntitlement) error
}
