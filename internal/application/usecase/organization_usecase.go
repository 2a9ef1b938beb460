package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// OrganizationUseCase alta y consulta de organizaciones (tenants). Solo super_admin.
type OrganizationUseCase struct {
	repo repository.OrganizationRepository
}

// NewOrganizationUseCase construye el caso de uso con el puerto de persistencia.
func NewOrganizationUseCase(repo repository.OrganizationRepository) *OrganizationUseCase {
	return &OrganizationUseCase{repo: repo}
}

// Create crea una organización con los módulos indicados habilitados.
func (uc *OrganizationUseCase) Create(ctx context.Context, actor access.Principal, in dto.CreateOrganizationRequest) (*dto.OrganizationResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	modules := make(map[string]entity.ModuleEntitlement, len(in.Modules))
	for _, raw := range in.Modules {
		m, err := access.ParseModule(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		modules[string(m)] = entity.ModuleEntitlement{Status: entity.ModuleStatusEnabled}
	}
	now := time.Now()
	org := &entity.Organization{
		ID:             uuid.New().String(),
		Name:           in.Name,
		Status:         "active",
		EnabledModules: modules,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, org); err != nil {
		return nil, err
	}
	return toOrganizationResponse(org), nil
}

// GetByID obtiene la organización del scope.
func (uc *OrganizationUseCase) GetByID(ctx context.Context, scope access.Scope) (*dto.OrganizationResponse, error) {
	org, err := loadOrg(ctx, uc.repo, scope.OrgID)
	if err != nil {
		return nil, err
	}
	return toOrganizationResponse(org), nil
}

// List lista organizaciones con paginación.
func (uc *OrganizationUseCase) List(ctx context.Context, actor access.Principal, limit, offset int) (*dto.OrganizationListResponse, error) {
	if !actor.IsSuperAdmin() {
		return nil, domain.ErrForbidden
	}
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrganizationResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *toOrganizationResponse(o))
	}
	return &dto.OrganizationListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toOrganizationResponse(o *entity.Organization) *dto.OrganizationResponse {
	return &dto.OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
