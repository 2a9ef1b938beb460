package usecase

import (
	"context"

	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// TxRunner ejecuta fn con repos atados a una misma transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(users repository.UserRepository, roles repository.RoleRepository) error) error
}

// AccessState lo que los casos de uso de administración necesitan del guard: el estado RBAC
// efectivo del actor (para impedir escalada) y la invalidación de la caché de permisos.
type AccessState interface {
	Policy() *access.EntitlementPolicy
	PermissionInput(ctx context.Context, p access.Principal, org *entity.Organization) access.PermissionInput
	InvalidateOrg(ctx context.Context, orgID string)
}

func loadOrg(ctx context.Context, orgs repository.OrganizationRepository, orgID string) (*entity.Organization, error) {
	org, err := orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, &access.TenantError{Kind: access.TenantMismatch, RequestedOrgID: orgID}
	}
	return org, nil
}
