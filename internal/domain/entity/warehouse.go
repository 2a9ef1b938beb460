package entity

import "time"

// Warehouse representa una bodega o sucursal donde se almacena inventario (multi-bodega).
// Es un registro del tenant: OrganizationID se fija al crear y no cambia.
type Warehouse struct {
	ID             string
	OrganizationID string
	Name           string
	Address        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
