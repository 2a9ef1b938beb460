package dto

// RolePermissionsRequest claves de permiso a conceder o retirar de un rol.
type RolePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

// RolePermissionsResponse resultado de una delegación o revocación.
type RolePermissionsResponse struct {
	RoleID      string   `json:"role_id"`
	Permissions []string `json:"permissions"`
}

// AccessCheckResponse decisión del guard sin lanzar error (afordancias de UI).
type AccessCheckResponse struct {
	Allowed        bool   `json:"allowed"`
	OrganizationID string `json:"organization_id,omitempty"`
	ErrorType      string `json:"error_type,omitempty"`
	ModuleKey      string `json:"module_key,omitempty"`
	Status         string `json:"status,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Permission     string `json:"permission,omitempty"`
}
