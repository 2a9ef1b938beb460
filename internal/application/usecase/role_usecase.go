package usecase

import (
	"context"
	"fmt"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// RoleUseCase delegación y revocación de permisos sobre roles de la organización.
type RoleUseCase struct {
	roles repository.RoleRepository
	orgs  repository.OrganizationRepository
	tx    TxRunner
	state AccessState
}

// NewRoleUseCase construye el caso de uso.
func NewRoleUseCase(roles repository.RoleRepository, orgs repository.OrganizationRepository, tx TxRunner, state AccessState) *RoleUseCase {
	return &RoleUseCase{roles: roles, orgs: orgs, tx: tx, state: state}
}

// Delegate concede permisos a un rol inferior. Nadie delega lo que no tiene.
func (uc *RoleUseCase) Delegate(ctx context.Context, scope access.Scope, roleID string, in dto.RolePermissionsRequest) (*dto.RolePermissionsResponse, error) {
	perms, err := uc.authorize(ctx, scope, roleID, in.Permissions)
	if err != nil {
		return nil, err
	}
	keys := perms.Strings()
	err = uc.tx.Run(ctx, func(_ repository.UserRepository, roles repository.RoleRepository) error {
		return roles.AddPermissions(ctx, roleID, scope.Principal.UserID, keys)
	})
	if err != nil {
		return nil, err
	}
	uc.state.InvalidateOrg(ctx, scope.OrgID)
	return &dto.RolePermissionsResponse{RoleID: roleID, Permissions: keys}, nil
}

// Revoke retira permisos de un rol inferior. Aplica las mismas reglas que Delegate:
// solo se revoca lo que el actor podría conceder.
func (uc *RoleUseCase) Revoke(ctx context.Context, scope access.Scope, roleID string, in dto.RolePermissionsRequest) (*dto.RolePermissionsResponse, error) {
	perms, err := uc.authorize(ctx, scope, roleID, in.Permissions)
	if err != nil {
		return nil, err
	}
	keys := perms.Strings()
	err = uc.tx.Run(ctx, func(_ repository.UserRepository, roles repository.RoleRepository) error {
		return roles.RemovePermissions(ctx, roleID, keys)
	})
	if err != nil {
		return nil, err
	}
	uc.state.InvalidateOrg(ctx, scope.OrgID)
	return &dto.RolePermissionsResponse{RoleID: roleID, Permissions: keys}, nil
}

func (uc *RoleUseCase) authorize(ctx context.Context, scope access.Scope, roleID string, raw []string) (access.PermissionSet, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: lista de permisos vacía", domain.ErrInvalidInput)
	}
	role, err := uc.roles.GetInOrg(ctx, scope.OrgID, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrNotFound
	}
	// Un rol global afecta a todas las organizaciones; no se edita desde una organización.
	if role.OrganizationID == "" {
		return nil, domain.ErrForbidden
	}
	level, err := access.ParseRole(role.Level)
	if err != nil {
		return nil, err
	}

	perms := make(access.PermissionSet, 0, len(raw))
	for _, r := range raw {
		p, err := access.ParsePermission(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		perms = append(perms, p)
	}

	org, err := loadOrg(ctx, uc.orgs, scope.OrgID)
	if err != nil {
		return nil, err
	}
	actor := uc.state.PermissionInput(ctx, scope.Principal, org)
	if err := access.ValidateDelegation(actor, level, perms); err != nil {
		return nil, err
	}
	return perms, nil
}
