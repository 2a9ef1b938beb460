package access

import (
	"time"

	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
)

// EntitlementStatus resultado de evaluar la licencia de un módulo.
type EntitlementStatus string

const (
	StatusEnabled      EntitlementStatus = "enabled"
	StatusDisabled     EntitlementStatus = "disabled"
	StatusTrialActive  EntitlementStatus = "trial_active"
	StatusTrialExpired EntitlementStatus = "trial_expired"
	StatusUnknown      EntitlementStatus = "unknown"
)

// EntitlementDecision decisión de licencia para (organización, módulo, submódulo).
type EntitlementDecision struct {
	Entitled bool
	Status   EntitlementStatus
	Reason   string
}

// Módulos por defecto fuera de la tabla de licencias.
var (
	DefaultAlwaysOnModules = []Module{ModuleEmail, ModuleDashboard}
	DefaultRBACOnlyModules = []Module{ModuleSettings, ModuleAdmin, ModuleOrganization}
)

// EntitlementPolicy evalúa Organization.EnabledModules. No recibe al usuario:
// la licencia es propiedad de la organización, sin excepción para super_admin.
type EntitlementPolicy struct {
	alwaysOn map[Module]struct{}
	rbacOnly map[Module]struct{}
	now      func() time.Time
}

// NewEntitlementPolicy construye la política. now nil usa time.Now.
func NewEntitlementPolicy(alwaysOn, rbacOnly []Module, now func() time.Time) *EntitlementPolicy {
	if now == nil {
		now = time.Now
	}
	p := &EntitlementPolicy{
		alwaysOn: make(map[Module]struct{}, len(alwaysOn)),
		rbacOnly: make(map[Module]struct{}, len(rbacOnly)),
		now:      now,
	}
	for _, m := range alwaysOn {
		p.alwaysOn[m] = struct{}{}
	}
	for _, m := range rbacOnly {
		p.rbacOnly[m] = struct{}{}
	}
	return p
}

// Bypasses indica si el módulo no pasa por la tabla de licencias (always-on o solo RBAC).
func (p *EntitlementPolicy) Bypasses(m Module) bool {
	if _, ok := p.alwaysOn[m]; ok {
		return true
	}
	_, ok := p.rbacOnly[m]
	return ok
}

// Bypass decisión para módulos always-on / solo RBAC; ok=false si el módulo requiere licencia.
func (p *EntitlementPolicy) Bypass(m Module) (EntitlementDecision, bool) {
	if _, ok := p.alwaysOn[m]; ok {
		return EntitlementDecision{Entitled: true, Status: StatusEnabled, Reason: "módulo siempre activo"}, true
	}
	if _, ok := p.rbacOnly[m]; ok {
		return EntitlementDecision{Entitled: true, Status: StatusEnabled, Reason: "módulo controlado solo por permisos"}, true
	}
	return EntitlementDecision{}, false
}

// Evaluate decide la licencia de module (y submodule si no es vacío) para org.
// Un módulo ausente del mapa no está licenciado.
func (p *EntitlementPolicy) Evaluate(org *entity.Organization, m Module, submodule string) EntitlementDecision {
	if d, ok := p.Bypass(m); ok {
		return d
	}
	ent, ok := org.Module(string(m))
	if !ok {
		return EntitlementDecision{Status: StatusUnknown, Reason: "módulo no incluido en la licencia"}
	}

	var d EntitlementDecision
	switch ent.Status {
	case entity.ModuleStatusEnabled:
		d = EntitlementDecision{Entitled: true, Status: StatusEnabled}
	case entity.ModuleStatusTrial:
		if ent.TrialExpiresAt != nil && p.now().Before(*ent.TrialExpiresAt) {
			d = EntitlementDecision{Entitled: true, Status: StatusTrialActive}
		} else {
			return EntitlementDecision{Status: StatusTrialExpired, Reason: "trial expired"}
		}
	case entity.ModuleStatusDisabled:
		return EntitlementDecision{Status: StatusDisabled, Reason: "módulo deshabilitado"}
	default:
		return EntitlementDecision{Status: StatusUnknown, Reason: "estado de licencia desconocido"}
	}

	if submodule != "" {
		if enabled, set := ent.Submodules[submodule]; set && !enabled {
			return EntitlementDecision{Status: StatusDisabled, Reason: "submódulo deshabilitado"}
		}
	}
	return d
}

// AccessibleModules módulos que la organización puede usar hoy: licenciados vigentes
// más los always-on y solo RBAC.
func (p *EntitlementPolicy) AccessibleModules(org *entity.Organization) map[Module]struct{} {
	out := make(map[Module]struct{}, len(p.alwaysOn)+len(p.rbacOnly))
	for m := range p.alwaysOn {
		out[m] = struct{}{}
	}
	for m := range p.rbacOnly {
		out[m] = struct{}{}
	}
	if org == nil {
		return out
	}
	for key := range org.EnabledModules {
		m, err := ParseModule(key)
		if err != nil {
			continue
		}
		if p.Evaluate(org, m, "").Entitled {
			out[m] = struct{}{}
		}
	}
	return out
}
