package dto

import "time"

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en use case).
// OrganizationID vacío = organización del scope; solo super_admin puede indicar otra.
type CreateUserRequest struct {
	OrganizationID       string                         `json:"organization_id" validate:"omitempty,uuid"`
	Email                string                         `json:"email" validate:"required,email"`
	Password             string                         `json:"password" validate:"required,min=8"`
	Name                 string                         `json:"name" validate:"required,min=1,max=200"`
	Role                 string                         `json:"role" validate:"required,oneof=org_admin management manager executive user"`
	ReportingManagerID   string                         `json:"reporting_manager_id" validate:"omitempty,uuid"`
	AssignedModules      []string                       `json:"assigned_modules"`
	SubmodulePermissions map[string]map[string][]string `json:"submodule_permissions"`
	RoleIDs              []string                       `json:"role_ids"`
}

// DelegateSubmodulesRequest pares submódulo/acción que un manager entrega a un executive.
// Reemplaza la delegación anterior completa.
type DelegateSubmodulesRequest struct {
	Submodules map[string]map[string][]string `json:"submodules"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID                   string                         `json:"id"`
	OrganizationID       string                         `json:"organization_id,omitempty"`
	Email                string                         `json:"email"`
	Name                 string                         `json:"name"`
	Role                 string                         `json:"role"`
	Status               string                         `json:"status"`
	ReportingManagerID   string                         `json:"reporting_manager_id,omitempty"`
	AssignedModules      []string                       `json:"assigned_modules,omitempty"`
	SubmodulePermissions map[string]map[string][]string `json:"submodule_permissions,omitempty"`
	CreatedAt            time.Time                      `json:"created_at"`
	UpdatedAt            time.Time                      `json:"updated_at"`
}

// UserListResponse lista paginada de usuarios.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
