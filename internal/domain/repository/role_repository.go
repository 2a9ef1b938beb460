package repository

import (
	"context"

	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
)

// RoleRepository puerto de persistencia de roles, permisos y asignaciones.
type RoleRepository interface {
	// GetInOrg devuelve (nil, nil) si el rol no existe o pertenece a otra organización.
	// Los roles globales (organization_id NULL) son visibles desde cualquier organización.
	GetInOrg(ctx context.Context, orgID, id string) (*entity.Role, error)
	// PermissionKeysForUser unión de las claves de permiso de los roles del usuario en orgID.
	PermissionKeysForUser(ctx context.Context, orgID, userID string) ([]string, error)
	AssignToUser(ctx context.Context, userID, roleID string) error
	AddPermissions(ctx context.Context, roleID, grantedBy string, keys []string) error
	RemovePermissions(ctx context.Context, roleID string, keys []string) error
}
