package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo roles, catálogo de permisos y asignaciones sobre PostgreSQL. Acepta pool o tx.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador.
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

// GetInOrg obtiene un rol propio de la organización o global.
func (r *RoleRepo) GetInOrg(ctx context.Context, orgID, id string) (*entity.Role, error) {
	query := `
		SELECT id, organization_id, name, level, description, created_at, updated_at
		FROM roles WHERE id = $1 AND (organization_id IS NULL OR organization_id = $2)`
	var (
		role  entity.Role
		owner *string
	)
	err := r.q.QueryRow(ctx, query, id, orgID).Scan(
		&role.ID, &owner, &role.Name, &role.Level, &role.Description, &role.CreatedAt, &role.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	role.OrganizationID = derefString(owner)
	return &role, nil
}

// PermissionKeysForUser claves de permiso de todos los roles del usuario. Un rol de otra
// organización asignado por error no aporta nada.
func (r *RoleRepo) PermissionKeysForUser(ctx context.Context, orgID, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT p.key
		  FROM user_roles ur
		  JOIN users u             ON u.id = ur.user_id
		  JOIN roles ro            ON ro.id = ur.role_id
		  JOIN role_permissions rp ON rp.role_id = ro.id
		  JOIN permissions p       ON p.id = rp.permission_id
		 WHERE ur.user_id = $1
		   AND u.organization_id = $2
		   AND (ro.organization_id IS NULL OR ro.organization_id = $2)
		 ORDER BY p.key`
	rows, err := r.q.Query(ctx, query, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("list permission keys: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan permission key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// AssignToUser asigna un rol; repetir la asignación no es error.
func (r *RoleRepo) AssignToUser(ctx context.Context, userID, roleID string) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, assigned_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, role_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, userID, roleID, time.Now().UTC()); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// AddPermissions registra las claves en el catálogo si faltan y las vincula al rol.
// Debe ejecutarse dentro de la transacción de delegación.
func (r *RoleRepo) AddPermissions(ctx context.Context, roleID, grantedBy string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO permissions (id, key)
		SELECT gen_random_uuid(), k FROM unnest($1::text[]) AS k
		ON CONFLICT (key) DO NOTHING`, keys)
	if err != nil {
		return fmt.Errorf("upsert permissions: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id, granted_by, granted_at)
		SELECT $1, p.id, $2, $3 FROM permissions p WHERE p.key = ANY($4::text[])
		ON CONFLICT (role_id, permission_id) DO NOTHING`,
		roleID, nullable(grantedBy), time.Now().UTC(), keys)
	if err != nil {
		return fmt.Errorf("grant permissions: %w", err)
	}
	return nil
}

// RemovePermissions desvincula las claves del rol. El catálogo de permisos no se toca.
func (r *RoleRepo) RemovePermissions(ctx context.Context, roleID string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		DELETE FROM role_permissions rp
		 USING permissions p
		 WHERE rp.permission_id = p.id AND rp.role_id = $1 AND p.key = ANY($2::text[])`,
		roleID, keys)
	if err != nil {
		return fmt.Errorf("revoke permissions: %w", err)
	}
	return nil
}
