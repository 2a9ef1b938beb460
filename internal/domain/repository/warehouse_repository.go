package repository

import (
	"context"

	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
// Toda consulta filtra por organization_id; un registro de otra organización no existe.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, orgID, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*entity.Warehouse, error)
	Delete(ctx context.Context, orgID, id string) error
}
