package access

// PermissionInput estado necesario para decidir un permiso, ya cargado por la capa de aplicación.
type PermissionInput struct {
	Principal Principal
	// Granted unión de permisos de los roles del usuario.
	Granted PermissionSet
	// OrgModules módulos accesibles de la organización (ver EntitlementPolicy.AccessibleModules).
	OrgModules map[Module]struct{}
	// Manager manager de reporte, obligatorio para executive.
	Manager *Principal
}

// Allowed decide si el principal tiene target.
//
//   - super_admin: siempre.
//   - org_admin / management: todo módulo accesible de su organización, más lo concedido por roles.
//   - manager: lo concedido por roles, limitado a sus módulos asignados.
//   - executive: solo los pares submódulo/acción delegados, dentro de los módulos de su manager.
//   - user: lo concedido por roles.
func Allowed(in PermissionInput, target Permission) bool {
	if target.IsZero() {
		return false
	}
	p := in.Principal
	switch p.Role {
	case RoleSuperAdmin:
		return true
	case RoleOrgAdmin, RoleManagement:
		if _, ok := in.OrgModules[target.Module()]; ok {
			return true
		}
		return in.Granted.Allows(target)
	case RoleManager:
		return p.HasModule(target.Module()) && in.Granted.Allows(target)
	case RoleExecutive:
		if in.Manager == nil || in.Manager.Role != RoleManager || !in.Manager.HasModule(target.Module()) {
			return false
		}
		return delegatedCovers(p.Submodules, target)
	case RoleUser:
		return in.Granted.Allows(target)
	}
	return false
}

// delegatedCovers solo el par submódulo/acción exacto. Un permiso de nivel módulo
// abarcaría submódulos no delegados, por eso nunca se concede a un executive.
func delegatedCovers(grants map[Module]map[string][]Action, target Permission) bool {
	if target.IsWildcard() || target.IsAdmin() || target.Submodule() == "" {
		return false
	}
	subs, ok := grants[target.Module()]
	if !ok {
		return false
	}
	return containsAction(subs[target.Submodule()], target.Action())
}

func containsAction(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
