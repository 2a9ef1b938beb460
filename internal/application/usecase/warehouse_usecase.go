package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
)

// WarehouseUseCase casos de uso CRUD para bodegas. La organización sale siempre del scope.
type WarehouseUseCase struct {
	repo repository.WarehouseRepository
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo}
}

// Create crea una nueva bodega en la organización del scope.
func (uc *WarehouseUseCase) Create(ctx context.Context, scope access.Scope, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	now := time.Now()
	warehouse := &entity.Warehouse{
		ID:             uuid.New().String(),
		OrganizationID: scope.OrgID,
		Name:           in.Name,
		Address:        in.Address,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega de la organización. Una bodega ajena responde como inexistente.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, scope access.Scope, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza nombre y dirección.
func (uc *WarehouseUseCase) Update(ctx context.Context, scope access.Scope, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if in.OrganizationID != nil && *in.OrganizationID != warehouse.OrganizationID {
		return nil, domain.ErrImmutableOrganization
	}
	if in.Name != nil {
		warehouse.Name = *in.Name
	}
	if in.Address != nil {
		warehouse.Address = *in.Address
	}
	warehouse.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas de la organización con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, scope access.Scope, limit, offset int) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.ListByOrganization(ctx, scope.OrgID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina una bodega de la organización.
func (uc *WarehouseUseCase) Delete(ctx context.Context, scope access.Scope, id string) error {
	return uc.repo.Delete(ctx, scope.OrgID, id)
}

func (uc *WarehouseUseCase) get(ctx context.Context, scope access.Scope, id string) (*entity.Warehouse, error) {
	warehouse, err := uc.repo.GetByID(ctx, scope.OrgID, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}
	if err := scope.EnsureSameOrg(warehouse.OrganizationID); err != nil {
		return nil, err
	}
	return warehouse, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:             w.ID,
		OrganizationID: w.OrganizationID,
		Name:           w.Name,
		Address:        w.Address,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}
