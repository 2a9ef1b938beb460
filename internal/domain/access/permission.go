// Package access contiene las reglas de autorización del ERP: contexto de tenant,
// licencias de módulos (entitlement) y permisos por rol (RBAC). No depende de HTTP ni de la DB.
package access

import (
	"fmt"
	"sort"
	"strings"
)

// Module clave de un módulo del ERP.
type Module string

// Catálogo cerrado de módulos. Una clave fuera del catálogo no puede construir un permiso.
const (
	ModuleCRM           Module = "crm"
	ModuleSales         Module = "sales"
	ModulePurchase      Module = "purchase"
	ModuleInventory     Module = "inventory"
	ModuleFinance       Module = "finance"
	ModuleVouchers      Module = "vouchers"
	ModuleHR            Module = "hr"
	ModuleManufacturing Module = "manufacturing"
	ModuleProjects      Module = "projects"
	ModuleService       Module = "service"
	ModuleReports       Module = "reports"
	ModuleAIAnalytics   Module = "ai_analytics"
	ModuleEmail         Module = "email"
	ModuleDashboard     Module = "dashboard"
	ModuleSettings      Module = "settings"
	ModuleAdmin         Module = "admin"
	ModuleOrganization  Module = "organization"
)

var knownModules = map[Module]struct{}{
	ModuleCRM: {}, ModuleSales: {}, ModulePurchase: {}, ModuleInventory: {}, ModuleFinance: {},
	ModuleVouchers: {}, ModuleHR: {}, ModuleManufacturing: {}, ModuleProjects: {}, ModuleService: {},
	ModuleReports: {}, ModuleAIAnalytics: {}, ModuleEmail: {}, ModuleDashboard: {},
	ModuleSettings: {}, ModuleAdmin: {}, ModuleOrganization: {},
}

// modulesByLength claves ordenadas de mayor a menor longitud, para resolver
// module_submodule_action cuando la clave del módulo contiene "_".
var modulesByLength = func() []Module {
	out := make([]Module, 0, len(knownModules))
	for m := range knownModules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// ParseModule valida una clave de módulo contra el catálogo.
func ParseModule(s string) (Module, error) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownModules[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModule, s)
	}
	return m, nil
}

// Modules devuelve el catálogo completo ordenado alfabéticamente.
func Modules() []Module {
	out := make([]Module, 0, len(knownModules))
	for m := range knownModules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Action acción sobre un módulo o submódulo.
type Action string

const (
	ActionRead    Action = "read"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionExport  Action = "export"
	ActionImport  Action = "import"
	ActionApprove Action = "approve"
	ActionManage  Action = "manage"
)

var knownActions = map[Action]struct{}{
	ActionRead: {}, ActionCreate: {}, ActionUpdate: {}, ActionDelete: {},
	ActionExport: {}, ActionImport: {}, ActionApprove: {}, ActionManage: {},
}

// ParseAction valida una acción contra el catálogo.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownActions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
	return a, nil
}

type grantKind uint8

const (
	kindExact grantKind = iota + 1
	kindWildcard
	kindAdmin
)

// Permission permiso ya validado. Solo se construye con los constructores de este paquete,
// por lo que un valor no cero siempre es un permiso válido.
//
// Formas soportadas:
//
//	crm.read            exacto a nivel módulo
//	crm_leads_read      exacto a nivel submódulo
//	crm.*               comodín: cubre cualquier crm.<acción>
//	crm_admin           administrador: cubre cualquier permiso del módulo crm
type Permission struct {
	module    Module
	submodule string
	action    Action
	kind      grantKind
}

// NewPermission construye module.action.
func NewPermission(module Module, action Action) (Permission, error) {
	if _, ok := knownModules[module]; !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	if _, ok := knownActions[action]; !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return Permission{module: module, action: action, kind: kindExact}, nil
}

// NewSubmodulePermission construye module_submodule_action.
func NewSubmodulePermission(module Module, submodule string, action Action) (Permission, error) {
	p, err := NewPermission(module, action)
	if err != nil {
		return Permission{}, err
	}
	if !validSubmodule(submodule) {
		return Permission{}, fmt.Errorf("%w: submódulo %q", ErrInvalidPermission, submodule)
	}
	p.submodule = submodule
	return p, nil
}

// Wildcard construye module.*.
func Wildcard(module Module) (Permission, error) {
	if _, ok := knownModules[module]; !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return Permission{module: module, kind: kindWildcard}, nil
}

// AdminOf construye module_admin.
func AdminOf(module Module) (Permission, error) {
	if _, ok := knownModules[module]; !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	return Permission{module: module, kind: kindAdmin}, nil
}

// MustPermission como ParsePermission pero entra en pánico; solo para literales conocidos.
func MustPermission(s string) Permission {
	p, err := ParsePermission(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePermission convierte la cadena persistida en un Permission validado.
func ParsePermission(raw string) (Permission, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Permission{}, fmt.Errorf("%w: vacío", ErrInvalidPermission)
	}

	if i := strings.IndexByte(s, '.'); i >= 0 {
		mod, act := s[:i], s[i+1:]
		if strings.Contains(act, ".") {
			return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, raw)
		}
		m, err := ParseModule(mod)
		if err != nil {
			return Permission{}, err
		}
		if act == "*" {
			return Wildcard(m)
		}
		a, err := ParseAction(act)
		if err != nil {
			return Permission{}, err
		}
		return NewPermission(m, a)
	}

	for _, m := range modulesByLength {
		prefix := string(m) + "_"
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		rest := s[len(prefix):]
		if rest == "admin" {
			return AdminOf(m)
		}
		j := strings.LastIndexByte(rest, '_')
		if j <= 0 {
			continue
		}
		a, err := ParseAction(rest[j+1:])
		if err != nil {
			return Permission{}, err
		}
		return NewSubmodulePermission(m, rest[:j], a)
	}
	return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermission, raw)
}

func validSubmodule(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return s[0] != '_' && s[len(s)-1] != '_'
}

// Module módulo al que pertenece el permiso.
func (p Permission) Module() Module { return p.module }

// Submodule submódulo, vacío para permisos de nivel módulo.
func (p Permission) Submodule() string { return p.submodule }

// Action acción, vacía para comodín y admin.
func (p Permission) Action() Action { return p.action }

// IsZero indica un Permission no construido.
func (p Permission) IsZero() bool { return p.kind == 0 }

// IsWildcard indica module.*.
func (p Permission) IsWildcard() bool { return p.kind == kindWildcard }

// IsAdmin indica module_admin.
func (p Permission) IsAdmin() bool { return p.kind == kindAdmin }

// String forma canónica persistida.
func (p Permission) String() string {
	switch p.kind {
	case kindWildcard:
		return string(p.module) + ".*"
	case kindAdmin:
		return string(p.module) + "_admin"
	case kindExact:
		if p.submodule != "" {
			return string(p.module) + "_" + p.submodule + "_" + string(p.action)
		}
		return string(p.module) + "." + string(p.action)
	default:
		return ""
	}
}

// Covers aplica las tres reglas de coincidencia en orden: exacta, comodín y admin.
func (p Permission) Covers(target Permission) bool {
	if p.IsZero() || target.IsZero() || p.module != target.module {
		return false
	}
	if p == target {
		return true
	}
	switch p.kind {
	case kindWildcard:
		// module.* cubre module.<acción>, no submódulos ni module_admin.
		return target.submodule == "" && target.kind != kindAdmin
	case kindAdmin:
		return true
	}
	return false
}

// PermissionSet conjunto de permisos concedidos.
type PermissionSet []Permission

// ParsePermissionSet valida una lista de cadenas. Devuelve los válidos y las cadenas rechazadas.
func ParsePermissionSet(raw []string) (PermissionSet, []string) {
	set := make(PermissionSet, 0, len(raw))
	var rejected []string
	seen := make(map[Permission]struct{}, len(raw))
	for _, r := range raw {
		p, err := ParsePermission(r)
		if err != nil {
			rejected = append(rejected, r)
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		set = append(set, p)
	}
	return set, rejected
}

// Allows indica si algún permiso del conjunto cubre target.
func (s PermissionSet) Allows(target Permission) bool {
	for _, g := range s {
		if g.Covers(target) {
			return true
		}
	}
	return false
}

// Strings forma canónica ordenada.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, p := range s {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}
