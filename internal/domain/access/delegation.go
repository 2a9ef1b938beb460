package access

import "fmt"

// ValidateDelegation comprueba que actor puede añadir (o quitar) perms a un rol de nivel targetLevel.
// La delegación no escala: cada permiso debe estar ya en el conjunto efectivo del actor.
func ValidateDelegation(actor PermissionInput, targetLevel Role, perms PermissionSet) error {
	if targetLevel.HasFullOrgAccess() {
		return ErrDelegationToAdmin
	}
	if !CanManage(actor.Principal.Role, targetLevel) {
		return ErrHierarchy
	}
	for _, p := range perms {
		if !Allowed(actor, p) {
			return fmt.Errorf("%w: %s", ErrDelegationEscalation, p)
		}
	}
	return nil
}

// ValidateSubmoduleDelegation comprueba que los pares submódulo/acción que un manager
// entrega a un executive quedan dentro de los módulos del manager y que el actor los posee.
func ValidateSubmoduleDelegation(actor PermissionInput, executive Principal, grants map[Module]map[string][]Action) error {
	if executive.Role != RoleExecutive {
		return fmt.Errorf("%w: el destino no es executive", ErrHierarchy)
	}
	if !CanManage(actor.Principal.Role, RoleExecutive) {
		return ErrHierarchy
	}
	if actor.Principal.Role == RoleManager && executive.ReportingManagerID != actor.Principal.UserID {
		return fmt.Errorf("%w: el executive reporta a otro manager", ErrHierarchy)
	}
	for m, subs := range grants {
		if actor.Principal.Role == RoleManager && !actor.Principal.HasModule(m) {
			return fmt.Errorf("%w: %s", ErrOutsideManagerScope, m)
		}
		for sub, actions := range subs {
			for _, a := range actions {
				p, err := NewSubmodulePermission(m, sub, a)
				if err != nil {
					return err
				}
				if !possesses(actor, p) {
					return fmt.Errorf("%w: %s", ErrDelegationEscalation, p)
				}
			}
		}
	}
	return nil
}

// possesses un par de submódulo también se posee con el permiso de módulo de la misma acción
// (crm.read o crm.* alcanzan crm_leads_read).
func possesses(actor PermissionInput, p Permission) bool {
	if Allowed(actor, p) {
		return true
	}
	if p.Submodule() == "" {
		return false
	}
	moduleLevel, err := NewPermission(p.Module(), p.Action())
	if err != nil {
		return false
	}
	return Allowed(actor, moduleLevel)
}

// NewUser datos tipados de un usuario a crear.
type NewUser struct {
	Role            Role
	OrganizationID  string
	AssignedModules []Module
	Submodules      map[Module]map[string][]Action
	// Manager manager de reporte ya cargado (executive).
	Manager *Principal
}

// ValidateNewUser aplica la jerarquía y los invariantes de manager/executive.
// orgModules son los módulos accesibles de la organización destino.
func ValidateNewUser(actor Principal, u NewUser, orgModules map[Module]struct{}) error {
	if !CanManage(actor.Role, u.Role) {
		return ErrHierarchy
	}
	if u.OrganizationID == "" {
		return &TenantError{Kind: NoOrganizationContext}
	}
	if !actor.IsSuperAdmin() && u.OrganizationID != actor.OrganizationID {
		return &TenantError{Kind: TenantMismatch, RequestedOrgID: u.OrganizationID}
	}

	for _, m := range u.AssignedModules {
		if _, ok := orgModules[m]; !ok {
			return &EntitlementError{Module: m, Status: StatusUnknown, Reason: "el módulo asignado no está habilitado en la organización"}
		}
	}

	switch u.Role {
	case RoleManager:
		if len(u.AssignedModules) == 0 {
			return ErrManagerWithoutModules
		}
	case RoleExecutive:
		mgr := u.Manager
		if mgr == nil || mgr.Role != RoleManager || mgr.OrganizationID != u.OrganizationID {
			return ErrExecutiveWithoutManager
		}
		if actor.Role == RoleManager && mgr.UserID != actor.UserID {
			return fmt.Errorf("%w: un manager solo crea executives a su cargo", ErrHierarchy)
		}
		for _, m := range u.AssignedModules {
			if !mgr.HasModule(m) {
				return fmt.Errorf("%w: %s", ErrOutsideManagerScope, m)
			}
		}
		for m := range u.Submodules {
			if !mgr.HasModule(m) {
				return fmt.Errorf("%w: %s", ErrOutsideManagerScope, m)
			}
		}
	}
	return nil
}
