package access_test

import (
	"testing"

	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subs = map[access.Module]map[string][]access.Action

func crmManager(grants ...string) access.PermissionInput {
	return access.PermissionInput{
		Principal: access.Principal{UserID: "m1", OrganizationID: "org-a", Role: access.RoleManager,
			AssignedModules: []access.Module{access.ModuleCRM}},
		Granted: granted(grants...),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidateDelegation
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateDelegation(t *testing.T) {
	t.Run("manager delega lo que posee", func(t *testing.T) {
		err := access.ValidateDelegation(crmManager("crm.*"), access.RoleUser, granted("crm.read", "crm.update"))
		assert.NoError(t, err)
	})

	t.Run("manager no escala a otro módulo", func(t *testing.T) {
		err := access.ValidateDelegation(crmManager("crm.*", "sales.read"), access.RoleUser, granted("sales.read"))
		assert.ErrorIs(t, err, access.ErrDelegationEscalation)
	})

	t.Run("manager no delega submódulo que no posee", func(t *testing.T) {
		err := access.ValidateDelegation(crmManager("crm.*"), access.RoleUser, granted("crm_admin"))
		assert.ErrorIs(t, err, access.ErrDelegationEscalation)
	})

	t.Run("nunca hacia org_admin ni management", func(t *testing.T) {
		super := access.PermissionInput{Principal: access.Principal{Role: access.RoleSuperAdmin}}
		for _, level := range []access.Role{access.RoleOrgAdmin, access.RoleManagement} {
			assert.ErrorIs(t, access.ValidateDelegation(super, level, granted("crm.read")), access.ErrDelegationToAdmin)
		}
	})

	t.Run("no hacia el mismo rango", func(t *testing.T) {
		err := access.ValidateDelegation(crmManager("crm.*"), access.RoleManager, granted("crm.read"))
		assert.ErrorIs(t, err, access.ErrHierarchy)
	})

	t.Run("org_admin delega dentro de módulos accesibles", func(t *testing.T) {
		admin := access.PermissionInput{
			Principal:  access.Principal{UserID: "a1", OrganizationID: "org-a", Role: access.RoleOrgAdmin},
			OrgModules: modules(access.ModuleCRM, access.ModuleInventory),
		}
		assert.NoError(t, access.ValidateDelegation(admin, access.RoleManager, granted("crm_admin", "inventory.*")))
		assert.ErrorIs(t, access.ValidateDelegation(admin, access.RoleManager, granted("hr.read")), access.ErrDelegationEscalation)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidateSubmoduleDelegation
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateSubmoduleDelegation(t *testing.T) {
	exec := access.Principal{UserID: "e1", OrganizationID: "org-a", Role: access.RoleExecutive, ReportingManagerID: "m1"}

	t.Run("permiso de módulo alcanza el submódulo", func(t *testing.T) {
		err := access.ValidateSubmoduleDelegation(crmManager("crm.read"), exec,
			subs{access.ModuleCRM: {"leads": {access.ActionRead}}})
		assert.NoError(t, err)
	})

	t.Run("comodín alcanza cualquier acción", func(t *testing.T) {
		err := access.ValidateSubmoduleDelegation(crmManager("crm.*"), exec,
			subs{access.ModuleCRM: {"leads": {access.ActionRead, access.ActionCreate}, "contacts": {access.ActionUpdate}}})
		assert.NoError(t, err)
	})

	t.Run("par exacto concedido", func(t *testing.T) {
		err := access.ValidateSubmoduleDelegation(crmManager("crm_leads_create"), exec,
			subs{access.ModuleCRM: {"leads": {access.ActionCreate}}})
		assert.NoError(t, err)
	})

	t.Run("acción que el manager no posee", func(t *testing.T) {
		err := access.ValidateSubmoduleDelegation(crmManager("crm.read"), exec,
			subs{access.ModuleCRM: {"leads": {access.ActionDelete}}})
		assert.ErrorIs(t, err, access.ErrDelegationEscalation)
	})

	t.Run("módulo fuera de los del manager", func(t *testing.T) {
		err := access.ValidateSubmoduleDelegation(crmManager("crm.*"), exec,
			subs{access.ModuleSales: {"quotes": {access.ActionRead}}})
		assert.ErrorIs(t, err, access.ErrOutsideManagerScope)
	})

	t.Run("executive de otro manager", func(t *testing.T) {
		other := exec
		other.ReportingManagerID = "m2"
		err := access.ValidateSubmoduleDelegation(crmManager("crm.*"), other,
			subs{access.ModuleCRM: {"leads": {access.ActionRead}}})
		assert.ErrorIs(t, err, access.ErrHierarchy)
	})

	t.Run("destino no executive", func(t *testing.T) {
		user := access.Principal{UserID: "u1", Role: access.RoleUser}
		err := access.ValidateSubmoduleDelegation(crmManager("crm.*"), user, nil)
		assert.ErrorIs(t, err, access.ErrHierarchy)
	})

	t.Run("executive no delega", func(t *testing.T) {
		actor := access.PermissionInput{Principal: access.Principal{UserID: "e9", Role: access.RoleExecutive}}
		assert.ErrorIs(t, access.ValidateSubmoduleDelegation(actor, exec, nil), access.ErrHierarchy)
	})

	t.Run("org_admin sobre cualquier executive de la organización", func(t *testing.T) {
		admin := access.PermissionInput{
			Principal:  access.Principal{UserID: "a1", OrganizationID: "org-a", Role: access.RoleOrgAdmin},
			OrgModules: modules(access.ModuleCRM),
		}
		err := access.ValidateSubmoduleDelegation(admin, exec, subs{access.ModuleCRM: {"leads": {access.ActionExport}}})
		assert.NoError(t, err)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidateNewUser
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateNewUser(t *testing.T) {
	admin := access.Principal{UserID: "a1", OrganizationID: "org-a", Role: access.RoleOrgAdmin}
	manager := access.Principal{UserID: "m1", OrganizationID: "org-a", Role: access.RoleManager,
		AssignedModules: []access.Module{access.ModuleCRM}}
	orgModules := modules(access.ModuleCRM, access.ModuleInventory)

	cases := []struct {
		name  string
		actor access.Principal
		user  access.NewUser
		check func(t *testing.T, err error)
	}{
		{"org_admin crea manager con módulos", admin,
			access.NewUser{Role: access.RoleManager, OrganizationID: "org-a", AssignedModules: []access.Module{access.ModuleCRM}},
			func(t *testing.T, err error) { assert.NoError(t, err) }},
		{"manager sin módulos", admin,
			access.NewUser{Role: access.RoleManager, OrganizationID: "org-a"},
			func(t *testing.T, err error) { assert.ErrorIs(t, err, access.ErrManagerWithoutModules) }},
		{"módulo no habilitado en la organización", admin,
			access.NewUser{Role: access.RoleManager, OrganizationID: "org-a", AssignedModules: []access.Module{access.ModuleHR}},
			func(t *testing.T, err error) {
				_, ok := access.IsEntitlementError(err)
				assert.True(t, ok)
			}},
		{"org_admin no crea management", admin,
			access.NewUser{Role: access.RoleManagement, OrganizationID: "org-a"},
			func(t *testing.T, err error) { assert.ErrorIs(t, err, access.ErrHierarchy) }},
		{"otra organización", admin,
			access.NewUser{Role: access.RoleUser, OrganizationID: "org-b"},
			func(t *testing.T, err error) {
				te, ok := access.IsTenantError(err)
				require.True(t, ok)
				assert.Equal(t, access.TenantMismatch, te.Kind)
			}},
		{"sin organización", access.Principal{UserID: "root", Role: access.RoleSuperAdmin},
			access.NewUser{Role: access.RoleOrgAdmin},
			func(t *testing.T, err error) {
				te, ok := access.IsTenantError(err)
				require.True(t, ok)
				assert.Equal(t, access.NoOrganizationContext, te.Kind)
			}},
		{"executive sin manager", admin,
			access.NewUser{Role: access.RoleExecutive, OrganizationID: "org-a"},
			func(t *testing.T, err error) { assert.ErrorIs(t, err, access.ErrExecutiveWithoutManager) }},
		{"executive con manager de otra organización", admin,
			access.NewUser{Role: access.RoleExecutive, OrganizationID: "org-a",
				Manager: &access.Principal{UserID: "m9", OrganizationID: "org-b", Role: access.RoleManager}},
			func(t *testing.T, err error) { assert.ErrorIs(t, err, access.ErrExecutiveWithoutManager) }},
		{"executive dentro del manager", manager,
			access.NewUser{Role: access.RoleExecutive, OrganizationID: "org-a", Manager: &manager,
				AssignedModules: []access.Module{access.ModuleCRM},
				Submodules:      subs{access.ModuleCRM: {"leads": {access.ActionRead}}}},
			func(t *testing.T, err error) { assert.NoError(t, err) }},
		{"executive con módulo fuera del manager", admin,
			access.NewUser{Role: access.RoleExecutive, OrganizationID: "org-a", Manager: &manager,
				AssignedModules: []access.Module{access.ModuleInventory}},
			func(t *testing.T, err error) { assert.ErrorIs(t, err, access.ErrOutsideManagerScope) }},
		{"executive con submódulos fuera del manager", admin,
			access.NewUser{Role: access.RoleExecutive, OrganizationID: "org-a", Manager: &manager,
				Submodules: subs{access.ModuleInventory: {"warehouses": {access.ActionRead}}}},
			func(t *testing.T, err error) { assert.ErrorIs(t, err, access.ErrOutsideManagerScope) }},
		{"manager crea executive para otro manager", manager,
			access.NewUser{Role: access.RoleExecutive, OrganizationID: "org-a",
				Manager: &access.Principal{UserID: "m2", OrganizationID: "org-a", Role: access.RoleManager,
					AssignedModules: []access.Module{access.ModuleCRM}}},
			func(t *testing.T, err error) { assert.ErrorIs(t, err, access.ErrHierarchy) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, access.ValidateNewUser(tc.actor, tc.user, orgModules))
		})
	}
}
