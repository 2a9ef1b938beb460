package entity

import "time"

// Estados de licencia de un módulo dentro de Organization.EnabledModules.
const (
	ModuleStatusEnabled  = "enabled"
	ModuleStatusDisabled = "disabled"
	ModuleStatusTrial    = "trial"
)

// Organization representa un tenant del ERP. Es la frontera de aislamiento de datos.
type Organization struct {
	ID             string
	Name           string
	Status         string // active, suspended, inactive
	EnabledModules map[string]ModuleEntitlement
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ModuleEntitlement estado de licencia de un módulo para una organización.
// Se persiste como JSON dentro de organizations.enabled_modules.
type ModuleEntitlement struct {
	Status         string          `json:"status"`
	TrialExpiresAt *time.Time      `json:"trial_expires_at,omitempty"`
	Submodules     map[string]bool `json:"submodules,omitempty"`
}

// Module devuelve la entrada de licencia del módulo y si existe.
func (o *Organization) Module(key string) (ModuleEntitlement, bool) {
	if o == nil || o.EnabledModules == nil {
		return ModuleEntitlement{}, false
	}
	m, ok := o.EnabledModules[key]
	return m, ok
}
