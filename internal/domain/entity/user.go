package entity

import "time"

// User representa un usuario del sistema. OrganizationID es vacío solo para super_admin.
type User struct {
	ID                 string
	OrganizationID     string
	Email              string
	PasswordHash       string // bcrypt hash, nunca plano en dominio después de persistir
	Name               string
	Role               string // super_admin, org_admin, management, manager, executive, user
	Status             string // active, inactive, suspended
	ReportingManagerID string // solo executive
	// AssignedModules módulos asignados (manager / executive).
	AssignedModules []string
	// SubmodulePermissions módulo -> submódulo -> acciones delegadas (solo executive).
	SubmodulePermissions map[string]map[string][]string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive indica si la cuenta puede operar.
func (u *User) IsActive() bool {
	return u != nil && u.Status == "active"
}
