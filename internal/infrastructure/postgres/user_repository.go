package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios. Acepta pool o tx.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, organization_id, email, password_hash, name, role, status,
	reporting_manager_id, assigned_modules, submodule_permissions, created_at, updated_at`

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	modules, err := jsonColumn(nonNilModules(user.AssignedModules))
	if err != nil {
		return err
	}
	subs, err := jsonColumn(nonNilSubmodules(user.SubmodulePermissions))
	if err != nil {
		return err
	}
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.q.Exec(ctx, query,
		user.ID, nullable(user.OrganizationID), user.Email, user.PasswordHash, user.Name, user.Role, user.Status,
		nullable(user.ReportingManagerID), modules, subs, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID (cualquier organización; lo usa el guard).
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, "get user by id", query, id)
}

// GetByEmail obtiene un usuario por email (login).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	return r.getOne(ctx, "get user by email", query, email)
}

// GetInOrg obtiene un usuario de la organización; de otra organización equivale a no encontrado.
func (r *UserRepo) GetInOrg(ctx context.Context, orgID, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND organization_id = $2`
	return r.getOne(ctx, "get user in org", query, id, orgID)
}

// ListByOrganization lista usuarios de la organización con paginación.
func (r *UserRepo) ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// UpdateSubmodulePermissions reemplaza los submódulos delegados de un usuario de la organización.
func (r *UserRepo) UpdateSubmodulePermissions(ctx context.Context, orgID, id string, perms map[string]map[string][]string) error {
	raw, err := jsonColumn(nonNilSubmodules(perms))
	if err != nil {
		return err
	}
	query := `
		UPDATE users SET submodule_permissions = $3, updated_at = $4
		WHERE id = $1 AND organization_id = $2`
	cmd, err := r.q.Exec(ctx, query, id, orgID, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update submodule permissions: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u            entity.User
		orgID, mgrID *string
		modules      []byte
		subs         []byte
	)
	err := row.Scan(&u.ID, &orgID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Status,
		&mgrID, &modules, &subs, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.OrganizationID = derefString(orgID)
	u.ReportingManagerID = derefString(mgrID)
	if err := scanJSON(modules, &u.AssignedModules); err != nil {
		return nil, err
	}
	if err := scanJSON(subs, &u.SubmodulePermissions); err != nil {
		return nil, err
	}
	return &u, nil
}

func nonNilModules(m []string) []string {
	if m == nil {
		return []string{}
	}
	return m
}

func nonNilSubmodules(m map[string]map[string][]string) map[string]map[string][]string {
	if m == nil {
		return map[string]map[string][]string{}
	}
	return m
}
