package dto

import "time"

// CreateOrganizationRequest entrada para crear una organización (solo super_admin).
type CreateOrganizationRequest struct {
	Name    string   `json:"name" validate:"required,min=1,max=200"`
	Modules []string `json:"modules"`
}

// OrganizationResponse salida de una organización.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationListResponse lista paginada de organizaciones.
type OrganizationListResponse struct {
	Items []OrganizationResponse `json:"items"`
	Page  PageResponse           `json:"page"`
}

// ToggleModuleRequest nuevo estado de licencia de un módulo.
type ToggleModuleRequest struct {
	Status         string          `json:"status" validate:"required,oneof=enabled disabled trial"`
	TrialExpiresAt *time.Time      `json:"trial_expires_at"`
	Submodules     map[string]bool `json:"submodules"`
}

// ModuleStatusResponse estado evaluado de un módulo para la organización.
type ModuleStatusResponse struct {
	Module         string          `json:"module"`
	Entitled       bool            `json:"entitled"`
	Status         string          `json:"status"`
	Reason         string          `json:"reason,omitempty"`
	TrialExpiresAt *time.Time      `json:"trial_expires_at,omitempty"`
	Submodules     map[string]bool `json:"submodules,omitempty"`
}

// OrganizationModulesResponse catálogo de módulos con su estado.
type OrganizationModulesResponse struct {
	OrganizationID string                 `json:"organization_id"`
	Modules        []ModuleStatusResponse `json:"modules"`
}
