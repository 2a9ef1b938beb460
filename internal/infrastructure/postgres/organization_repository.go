package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// Asegura que OrganizationRepo implementa repository.OrganizationRepository.
var _ repository.OrganizationRepository = (*OrganizationRepo)(nil)

// OrganizationRepo implementación del puerto OrganizationRepository sobre PostgreSQL.
// enabled_modules es JSONB: {"crm": {"status": "enabled", "submodules": {"leads": true}}}.
type OrganizationRepo struct {
	q Querier
}

// NewOrganizationRepository construye el adaptador. Acepta pool o tx (Querier).
func NewOrganizationRepository(q Querier) *OrganizationRepo {
	return &OrganizationRepo{q: q}
}

const organizationColumns = `id, name, status, enabled_modules, created_at, updated_at`

// Create persiste una nueva organización.
func (r *OrganizationRepo) Create(ctx context.Context, org *entity.Organization) error {
	modules := org.EnabledModules
	if modules == nil {
		modules = map[string]entity.ModuleEntitlement{}
	}
	raw, err := jsonColumn(modules)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.q.Exec(ctx, query, org.ID, org.Name, org.Status, raw, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// GetByID obtiene una organización por ID.
func (r *OrganizationRepo) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	org, err := scanOrganization(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return org, nil
}

// List devuelve organizaciones con paginación (solo super_admin).
func (r *OrganizationRepo) List(ctx context.Context, limit, offset int) ([]*entity.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var list []*entity.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		list = append(list, org)
	}
	return list, rows.Err()
}

// SetModule reemplaza la entrada de un módulo con jsonb_set en un único UPDATE:
// dos cambios concurrentes sobre módulos distintos no se pisan.
func (r *OrganizationRepo) SetModule(ctx context.Context, orgID, module string, ent entity.ModuleEntitlement) error {
	raw, err := jsonColumn(ent)
	if err != nil {
		return err
	}
	query := `
		UPDATE organizations
		   SET enabled_modules = jsonb_set(COALESCE(enabled_modules, '{}'::jsonb), ARRAY[$2::text], $3::jsonb, true),
		       updated_at = $4
		 WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, orgID, module, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set module %s: %w", module, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*entity.Organization, error) {
	var (
		o   entity.Organization
		raw []byte
	)
	if err := row.Scan(&o.ID, &o.Name, &o.Status, &raw, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.EnabledModules = map[string]entity.ModuleEntitlement{}
	if err := scanJSON(raw, &o.EnabledModules); err != nil {
		return nil, err
	}
	return &o, nil
}
