package access_test

import (
	"testing"

	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// ParsePermission: las cuatro formas persistidas y sus rechazos.
// ──────────────────────────────────────────────────────────────────────────────

func TestParsePermission_Formas(t *testing.T) {
	cases := []struct {
		raw       string
		module    access.Module
		submodule string
		action    access.Action
		wildcard  bool
		admin     bool
		canonical string
	}{
		{raw: "crm.read", module: access.ModuleCRM, action: access.ActionRead, canonical: "crm.read"},
		{raw: " CRM.Create ", module: access.ModuleCRM, action: access.ActionCreate, canonical: "crm.create"},
		{raw: "crm_leads_read", module: access.ModuleCRM, submodule: "leads", action: access.ActionRead, canonical: "crm_leads_read"},
		{raw: "crm.*", module: access.ModuleCRM, wildcard: true, canonical: "crm.*"},
		{raw: "crm_admin", module: access.ModuleCRM, admin: true, canonical: "crm_admin"},
		// La clave del módulo contiene "_": se resuelve por el prefijo más largo.
		{raw: "ai_analytics_reports_export", module: access.ModuleAIAnalytics, submodule: "reports", action: access.ActionExport, canonical: "ai_analytics_reports_export"},
		{raw: "ai_analytics_admin", module: access.ModuleAIAnalytics, admin: true, canonical: "ai_analytics_admin"},
		{raw: "inventory_stock_moves_update", module: access.ModuleInventory, submodule: "stock_moves", action: access.ActionUpdate, canonical: "inventory_stock_moves_update"},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			p, err := access.ParsePermission(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.module, p.Module())
			assert.Equal(t, tc.submodule, p.Submodule())
			assert.Equal(t, tc.action, p.Action())
			assert.Equal(t, tc.wildcard, p.IsWildcard())
			assert.Equal(t, tc.admin, p.IsAdmin())
			assert.Equal(t, tc.canonical, p.String())
		})
	}
}

func TestParsePermission_Rechazos(t *testing.T) {
	cases := map[string]error{
		"":                 access.ErrInvalidPermission,
		"foo.read":         access.ErrUnknownModule,
		"crm.fly":          access.ErrUnknownAction,
		"crm.read.extra":   access.ErrInvalidPermission,
		"crm_leads_fly":    access.ErrUnknownAction,
		"crm_read":         access.ErrInvalidPermission,
		"nomodule_x_read":  access.ErrInvalidPermission,
		"crm_Le-ads_read":  access.ErrInvalidPermission,
		"crm__leads_read":  access.ErrInvalidPermission,
		"unknown_admin":    access.ErrInvalidPermission,
		"crm.":             access.ErrUnknownAction,
		".read":            access.ErrUnknownModule,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			_, err := access.ParsePermission(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, want)
		})
	}
}

func TestConstructores_ValidanCatalogo(t *testing.T) {
	_, err := access.NewPermission("foo", access.ActionRead)
	assert.ErrorIs(t, err, access.ErrUnknownModule)

	_, err = access.NewPermission(access.ModuleCRM, "fly")
	assert.ErrorIs(t, err, access.ErrUnknownAction)

	_, err = access.NewSubmodulePermission(access.ModuleCRM, "", access.ActionRead)
	assert.ErrorIs(t, err, access.ErrInvalidPermission)

	_, err = access.Wildcard("foo")
	assert.ErrorIs(t, err, access.ErrUnknownModule)

	_, err = access.AdminOf("foo")
	assert.ErrorIs(t, err, access.ErrUnknownModule)

	assert.True(t, access.Permission{}.IsZero())
	assert.Empty(t, access.Permission{}.String())
	assert.Panics(t, func() { access.MustPermission("nope") })
}

// ──────────────────────────────────────────────────────────────────────────────
// Covers: exacta, comodín y admin, nunca entre módulos.
// ──────────────────────────────────────────────────────────────────────────────

func TestCovers(t *testing.T) {
	cases := []struct {
		grant, target string
		want          bool
	}{
		{"crm.read", "crm.read", true},
		{"crm.read", "crm.create", false},
		{"crm.*", "crm.delete", true},
		{"crm.*", "crm_leads_read", false},
		{"crm.*", "crm_admin", false},
		{"crm_admin", "crm.delete", true},
		{"crm_admin", "crm_leads_export", true},
		{"crm_admin", "crm.*", true},
		{"crm_leads_read", "crm_leads_read", true},
		{"crm_leads_read", "crm.read", false},
		{"crm_leads_read", "crm_contacts_read", false},
		{"crm.*", "sales.read", false},
		{"crm_admin", "sales.read", false},
	}
	for _, tc := range cases {
		t.Run(tc.grant+"→"+tc.target, func(t *testing.T) {
			g := access.MustPermission(tc.grant)
			target := access.MustPermission(tc.target)
			assert.Equal(t, tc.want, g.Covers(target))
		})
	}

	assert.False(t, access.MustPermission("crm.*").Covers(access.Permission{}))
	assert.False(t, access.Permission{}.Covers(access.MustPermission("crm.read")))
}

func TestParsePermissionSet(t *testing.T) {
	set, rejected := access.ParsePermissionSet([]string{"crm.read", "CRM.read", "basura", "sales.*", "crm.fly"})

	assert.Equal(t, []string{"crm.read", "sales.*"}, set.Strings())
	assert.Equal(t, []string{"basura", "crm.fly"}, rejected)
	assert.True(t, set.Allows(access.MustPermission("sales.export")))
	assert.False(t, set.Allows(access.MustPermission("crm.create")))
}

func TestParseModuleYAction(t *testing.T) {
	m, err := access.ParseModule(" Inventory ")
	require.NoError(t, err)
	assert.Equal(t, access.ModuleInventory, m)

	_, err = access.ParseModule("billing")
	assert.ErrorIs(t, err, access.ErrUnknownModule)

	a, err := access.ParseAction("APPROVE")
	require.NoError(t, err)
	assert.Equal(t, access.ActionApprove, a)

	mods := access.Modules()
	assert.Len(t, mods, 17)
	assert.Equal(t, access.ModuleAdmin, mods[0])
}

func TestRoles(t *testing.T) {
	r, err := access.ParseRole("Org_Admin")
	require.NoError(t, err)
	assert.Equal(t, access.RoleOrgAdmin, r)

	_, err = access.ParseRole("owner")
	assert.ErrorIs(t, err, access.ErrInvalidRole)

	assert.True(t, access.RoleManagement.HasFullOrgAccess())
	assert.False(t, access.RoleManager.HasFullOrgAccess())

	assert.True(t, access.CanManage(access.RoleSuperAdmin, access.RoleOrgAdmin))
	assert.True(t, access.CanManage(access.RoleOrgAdmin, access.RoleManager))
	assert.True(t, access.CanManage(access.RoleManager, access.RoleExecutive))
	assert.False(t, access.CanManage(access.RoleOrgAdmin, access.RoleManagement), "mismo rango")
	assert.False(t, access.CanManage(access.RoleManager, access.RoleManager))
	assert.False(t, access.CanManage(access.RoleExecutive, access.RoleUser))
	assert.False(t, access.CanManage(access.RoleUser, access.RoleUser))
	assert.False(t, access.CanManage("ghost", access.RoleUser))
}
