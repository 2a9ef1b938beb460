package access_test

import (
	"testing"
	"time"

	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPolicy() *access.EntitlementPolicy {
	return access.NewEntitlementPolicy(access.DefaultAlwaysOnModules, access.DefaultRBACOnlyModules,
		func() time.Time { return fixedNow })
}

func orgWith(modules map[string]entity.ModuleEntitlement) *entity.Organization {
	return &entity.Organization{ID: "org-1", Name: "Acme", Status: "active", EnabledModules: modules}
}

func TestEvaluate_EstadosDeLicencia(t *testing.T) {
	future := fixedNow.Add(24 * time.Hour)
	past := fixedNow.Add(-time.Minute)
	org := orgWith(map[string]entity.ModuleEntitlement{
		"crm":       {Status: entity.ModuleStatusEnabled, Submodules: map[string]bool{"leads": true, "contacts": false}},
		"sales":     {Status: entity.ModuleStatusDisabled},
		"hr":        {Status: entity.ModuleStatusTrial, TrialExpiresAt: &future},
		"finance":   {Status: entity.ModuleStatusTrial, TrialExpiresAt: &past},
		"projects":  {Status: entity.ModuleStatusTrial},
		"inventory": {Status: "paused"},
	})
	p := newPolicy()

	cases := []struct {
		name      string
		module    access.Module
		submodule string
		entitled  bool
		status    access.EntitlementStatus
	}{
		{"habilitado", access.ModuleCRM, "", true, access.StatusEnabled},
		{"submódulo habilitado", access.ModuleCRM, "leads", true, access.StatusEnabled},
		{"submódulo no listado hereda el módulo", access.ModuleCRM, "opportunities", true, access.StatusEnabled},
		{"submódulo deshabilitado", access.ModuleCRM, "contacts", false, access.StatusDisabled},
		{"deshabilitado", access.ModuleSales, "", false, access.StatusDisabled},
		{"trial vigente", access.ModuleHR, "", true, access.StatusTrialActive},
		{"trial vencido", access.ModuleFinance, "", false, access.StatusTrialExpired},
		{"trial sin fecha", access.ModuleProjects, "", false, access.StatusTrialExpired},
		{"estado desconocido", access.ModuleInventory, "", false, access.StatusUnknown},
		{"ausente del mapa", access.ModulePurchase, "", false, access.StatusUnknown},
		{"always-on", access.ModuleEmail, "", true, access.StatusEnabled},
		{"solo RBAC", access.ModuleAdmin, "", true, access.StatusEnabled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := p.Evaluate(org, tc.module, tc.submodule)
			assert.Equal(t, tc.entitled, d.Entitled)
			assert.Equal(t, tc.status, d.Status)
			if !tc.entitled {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestEvaluate_TrialVenceEnElInstanteExacto(t *testing.T) {
	at := fixedNow
	org := orgWith(map[string]entity.ModuleEntitlement{
		"hr": {Status: entity.ModuleStatusTrial, TrialExpiresAt: &at},
	})
	d := newPolicy().Evaluate(org, access.ModuleHR, "")
	assert.False(t, d.Entitled)
	assert.Equal(t, "trial expired", d.Reason)
}

func TestEvaluate_OrganizacionSinMapaNoLicencia(t *testing.T) {
	p := newPolicy()
	assert.False(t, p.Evaluate(&entity.Organization{ID: "x"}, access.ModuleCRM, "").Entitled)
	assert.False(t, p.Evaluate(nil, access.ModuleCRM, "").Entitled)
	assert.True(t, p.Evaluate(nil, access.ModuleDashboard, "").Entitled)
}

func TestAccessibleModules(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	org := orgWith(map[string]entity.ModuleEntitlement{
		"crm":     {Status: entity.ModuleStatusEnabled},
		"sales":   {Status: entity.ModuleStatusDisabled},
		"finance": {Status: entity.ModuleStatusTrial, TrialExpiresAt: &past},
		"legacy":  {Status: entity.ModuleStatusEnabled},
	})
	got := newPolicy().AccessibleModules(org)

	assert.Contains(t, got, access.ModuleCRM)
	assert.Contains(t, got, access.ModuleEmail)
	assert.Contains(t, got, access.ModuleSettings)
	assert.NotContains(t, got, access.ModuleSales)
	assert.NotContains(t, got, access.ModuleFinance)
	assert.Len(t, got, 6)

	assert.Len(t, newPolicy().AccessibleModules(nil), 5)
}

func TestBypass(t *testing.T) {
	p := access.NewEntitlementPolicy(nil, []access.Module{access.ModuleReports}, nil)
	assert.True(t, p.Bypasses(access.ModuleReports))
	assert.False(t, p.Bypasses(access.ModuleEmail), "sin always-on configurados el correo requiere licencia")

	_, ok := p.Bypass(access.ModuleCRM)
	assert.False(t, ok)
}
