package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/application/guard"
	"github.com/jhoicas/erp-suite-api/internal/application/usecase"
	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/cache"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type env struct {
	store *memory.Store
	guard *guard.Service
	org   *entity.Organization
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	policy := access.NewEntitlementPolicy(access.DefaultAlwaysOnModules, access.DefaultRBACOnlyModules, time.Now)
	g := guard.NewService(store.Organizations(), store.Users(), store.Roles(), policy,
		guard.WithCache(cache.NewLRUCache(100, time.Minute)))
	return &env{store: store, guard: g, org: store.AddOrganization("Acme", "crm", "inventory")}
}

// scopeOf resuelve el scope como lo haría el middleware.
func (e *env) scopeOf(t *testing.T, u *entity.User, orgID string) access.Scope {
	t.Helper()
	s, err := e.guard.ResolveScope(context.Background(),
		guard.Identity{UserID: u.ID, OrganizationID: u.OrganizationID, Role: u.Role}, orgID)
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }

// ──────────────────────────────────────────────────────────────────────────────
// ModuleUseCase
// ──────────────────────────────────────────────────────────────────────────────

func TestToggleModule(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewModuleUseCase(e.store.Organizations(), e.guard)
	super := e.store.AddUser(entity.User{Role: "super_admin"})
	admin := e.store.AddUser(entity.User{Role: "org_admin", OrganizationID: e.org.ID})
	ctx := context.Background()
	scope := e.scopeOf(t, super, e.org.ID)

	t.Run("solo super_admin", func(t *testing.T) {
		_, err := uc.ToggleModule(ctx, e.scopeOf(t, admin, ""), "crm", dto.ToggleModuleRequest{Status: "disabled"})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("módulo desconocido", func(t *testing.T) {
		_, err := uc.ToggleModule(ctx, scope, "billing", dto.ToggleModuleRequest{Status: "enabled"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("módulo fuera de licencias", func(t *testing.T) {
		_, err := uc.ToggleModule(ctx, scope, "settings", dto.ToggleModuleRequest{Status: "disabled"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("estado inválido", func(t *testing.T) {
		_, err := uc.ToggleModule(ctx, scope, "crm", dto.ToggleModuleRequest{Status: "paused"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("trial con fecha pasada", func(t *testing.T) {
		_, err := uc.ToggleModule(ctx, scope, "hr", dto.ToggleModuleRequest{Status: "trial", TrialExpiresAt: ptr(time.Now().Add(-time.Hour))})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("trial vigente", func(t *testing.T) {
		res, err := uc.ToggleModule(ctx, scope, "hr", dto.ToggleModuleRequest{Status: "trial", TrialExpiresAt: ptr(time.Now().Add(48 * time.Hour))})
		require.NoError(t, err)
		assert.True(t, res.Entitled)
		assert.Equal(t, string(access.StatusTrialActive), res.Status)
		assert.NotNil(t, res.TrialExpiresAt)
	})

	t.Run("deshabilitar se refleja en el listado", func(t *testing.T) {
		res, err := uc.ToggleModule(ctx, scope, "CRM", dto.ToggleModuleRequest{Status: "disabled"})
		require.NoError(t, err)
		assert.False(t, res.Entitled)

		list, err := uc.ListModules(ctx, scope)
		require.NoError(t, err)
		assert.Len(t, list.Modules, len(access.Modules()))
		for _, m := range list.Modules {
			switch m.Module {
			case "crm":
				assert.False(t, m.Entitled)
			case "inventory", "email":
				assert.True(t, m.Entitled, m.Module)
			case "purchase":
				assert.Equal(t, string(access.StatusUnknown), m.Status)
			}
		}
	})
}

func TestToggleModule_InvalidaCacheDeOrgAdmin(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewModuleUseCase(e.store.Organizations(), e.guard)
	super := e.store.AddUser(entity.User{Role: "super_admin"})
	admin := e.store.AddUser(entity.User{Role: "org_admin", OrganizationID: e.org.ID})
	ctx := context.Background()
	id := guard.Identity{UserID: admin.ID, OrganizationID: e.org.ID}
	crmRead := guard.Requirement{Module: access.ModuleCRM, Action: access.ActionRead}

	_, err := e.guard.RequireAccess(ctx, id, "", crmRead)
	require.NoError(t, err)

	_, err = uc.ToggleModule(ctx, e.scopeOf(t, super, e.org.ID), "crm", dto.ToggleModuleRequest{Status: "disabled"})
	require.NoError(t, err)

	_, err = e.guard.RequireAccess(ctx, id, "", crmRead)
	_, ok := access.IsEntitlementError(err)
	assert.True(t, ok, "el cambio de licencia aplica en la siguiente petición")
}

func TestToggleModule_ConservaSubmodulos(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewModuleUseCase(e.store.Organizations(), e.guard)
	super := e.store.AddUser(entity.User{Role: "super_admin"})
	ctx := context.Background()
	scope := e.scopeOf(t, super, e.org.ID)

	res, err := uc.ToggleModule(ctx, scope, "crm", dto.ToggleModuleRequest{Status: "enabled", Submodules: map[string]bool{"leads": false}})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"leads": false}, res.Submodules)

	res, err = uc.ToggleModule(ctx, scope, "crm", dto.ToggleModuleRequest{Status: "disabled"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"leads": false}, res.Submodules)

	_, err = uc.ToggleModule(ctx, scope, "crm", dto.ToggleModuleRequest{Status: "enabled"})
	require.NoError(t, err)
	d, err := e.guard.CheckEntitlement(ctx, e.org.ID, access.ModuleCRM, "leads")
	require.NoError(t, err)
	assert.False(t, d.Entitled)

	// Enviar submódulos los reemplaza.
	res, err = uc.ToggleModule(ctx, scope, "crm", dto.ToggleModuleRequest{Status: "enabled", Submodules: map[string]bool{}})
	require.NoError(t, err)
	assert.Empty(t, res.Submodules)
	d, err = e.guard.CheckEntitlement(ctx, e.org.ID, access.ModuleCRM, "leads")
	require.NoError(t, err)
	assert.True(t, d.Entitled)
}

// ──────────────────────────────────────────────────────────────────────────────
// UserUseCase
// ──────────────────────────────────────────────────────────────────────────────

func newUserUC(e *env) *usecase.UserUseCase {
	return usecase.NewUserUseCase(e.store.Users(), e.store.Organizations(), e.store.Roles(), e.store, e.guard)
}

func TestCreateUser(t *testing.T) {
	e := newEnv(t)
	uc := newUserUC(e)
	ctx := context.Background()
	admin := e.store.AddUser(entity.User{Role: "org_admin", OrganizationID: e.org.ID})
	manager := e.store.AddUser(entity.User{Role: "manager", OrganizationID: e.org.ID, AssignedModules: []string{"crm"}})
	mgrRole := e.store.AddRole(e.org.ID, "manager", "crm.*")
	adminRole := e.store.AddRole(e.org.ID, "org_admin")

	t.Run("org_admin crea manager con rol", func(t *testing.T) {
		res, err := uc.CreateUser(ctx, e.scopeOf(t, admin, ""), dto.CreateUserRequest{
			Email: " Nuevo@Acme.Test ", Password: "secreto123", Name: "Nuevo", Role: "manager",
			AssignedModules: []string{"crm"}, RoleIDs: []string{mgrRole.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "nuevo@acme.test", res.Email)
		assert.Equal(t, e.org.ID, res.OrganizationID)

		keys, err := e.store.Roles().PermissionKeysForUser(ctx, e.org.ID, res.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"crm.*"}, keys)
	})

	t.Run("email repetido", func(t *testing.T) {
		_, err := uc.CreateUser(ctx, e.scopeOf(t, admin, ""), dto.CreateUserRequest{
			Email: "nuevo@acme.test", Password: "secreto123", Name: "Otro", Role: "user",
		})
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("rol asignable por encima del actor", func(t *testing.T) {
		_, err := uc.CreateUser(ctx, e.scopeOf(t, admin, ""), dto.CreateUserRequest{
			Email: "x@acme.test", Password: "secreto123", Name: "X", Role: "user", RoleIDs: []string{adminRole.ID},
		})
		assert.ErrorIs(t, err, access.ErrHierarchy)
	})

	t.Run("manager crea executive a su cargo", func(t *testing.T) {
		res, err := uc.CreateUser(ctx, e.scopeOf(t, manager, ""), dto.CreateUserRequest{
			Email: "exec@acme.test", Password: "secreto123", Name: "Exec", Role: "executive",
			ReportingManagerID:   manager.ID,
			SubmodulePermissions: map[string]map[string][]string{"crm": {"leads": {"read"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, manager.ID, res.ReportingManagerID)
	})

	t.Run("manager no crea manager", func(t *testing.T) {
		_, err := uc.CreateUser(ctx, e.scopeOf(t, manager, ""), dto.CreateUserRequest{
			Email: "m2@acme.test", Password: "secreto123", Name: "M2", Role: "manager", AssignedModules: []string{"crm"},
		})
		assert.ErrorIs(t, err, access.ErrHierarchy)
	})

	t.Run("submódulos solo para executive", func(t *testing.T) {
		_, err := uc.CreateUser(ctx, e.scopeOf(t, admin, ""), dto.CreateUserRequest{
			Email: "u2@acme.test", Password: "secreto123", Name: "U2", Role: "user",
			SubmodulePermissions: map[string]map[string][]string{"crm": {"leads": {"read"}}},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("executive con manager inexistente", func(t *testing.T) {
		_, err := uc.CreateUser(ctx, e.scopeOf(t, admin, ""), dto.CreateUserRequest{
			Email: "e2@acme.test", Password: "secreto123", Name: "E2", Role: "executive", ReportingManagerID: "ghost",
		})
		assert.ErrorIs(t, err, access.ErrExecutiveWithoutManager)
	})

	t.Run("org_admin en otra organización", func(t *testing.T) {
		other := e.store.AddOrganization("Globex", "crm")
		_, err := uc.CreateUser(ctx, e.scopeOf(t, admin, ""), dto.CreateUserRequest{
			OrganizationID: other.ID, Email: "z@globex.test", Password: "secreto123", Name: "Z", Role: "user",
		})
		_, ok := access.IsTenantError(err)
		assert.True(t, ok)
	})
}

func TestDelegateSubmodules(t *testing.T) {
	e := newEnv(t)
	uc := newUserUC(e)
	ctx := context.Background()
	manager := e.store.AddUser(entity.User{Role: "manager", OrganizationID: e.org.ID, AssignedModules: []string{"crm"}})
	e.store.AssignRole(manager.ID, e.store.AddRole(e.org.ID, "manager", "crm.read").ID)
	exec := e.store.AddUser(entity.User{Role: "executive", OrganizationID: e.org.ID, ReportingManagerID: manager.ID, AssignedModules: []string{"crm"}})
	user := e.store.AddUser(entity.User{Role: "user", OrganizationID: e.org.ID})
	scope := e.scopeOf(t, manager, "")

	res, err := uc.DelegateSubmodules(ctx, scope, exec.ID, dto.DelegateSubmodulesRequest{
		Submodules: map[string]map[string][]string{"crm": {"leads": {"read"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, res.SubmodulePermissions["crm"]["leads"])

	_, err = uc.DelegateSubmodules(ctx, scope, exec.ID, dto.DelegateSubmodulesRequest{
		Submodules: map[string]map[string][]string{"crm": {"leads": {"delete"}}},
	})
	assert.ErrorIs(t, err, access.ErrDelegationEscalation)

	_, err = uc.DelegateSubmodules(ctx, scope, exec.ID, dto.DelegateSubmodulesRequest{
		Submodules: map[string]map[string][]string{"inventory": {"warehouses": {"read"}}},
	})
	assert.ErrorIs(t, err, access.ErrOutsideManagerScope)

	_, err = uc.DelegateSubmodules(ctx, scope, user.ID, dto.DelegateSubmodulesRequest{})
	assert.ErrorIs(t, err, access.ErrHierarchy)

	_, err = uc.DelegateSubmodules(ctx, scope, "ghost", dto.DelegateSubmodulesRequest{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	stored, err := e.store.Users().GetByID(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, stored.SubmodulePermissions["crm"]["leads"], "los rechazos no modifican lo guardado")
}

// ──────────────────────────────────────────────────────────────────────────────
// RoleUseCase
// ──────────────────────────────────────────────────────────────────────────────

func TestRoleDelegation(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewRoleUseCase(e.store.Roles(), e.store.Organizations(), e.store, e.guard)
	ctx := context.Background()
	manager := e.store.AddUser(entity.User{Role: "manager", OrganizationID: e.org.ID, AssignedModules: []string{"crm"}})
	e.store.AssignRole(manager.ID, e.store.AddRole(e.org.ID, "manager", "crm.*").ID)
	member := e.store.AddUser(entity.User{Role: "user", OrganizationID: e.org.ID})
	userRole := e.store.AddRole(e.org.ID, "user")
	e.store.AssignRole(member.ID, userRole.ID)
	scope := e.scopeOf(t, manager, "")
	crmUpdate := guard.Requirement{Module: access.ModuleCRM, Action: access.ActionUpdate}
	memberID := guard.Identity{UserID: member.ID, OrganizationID: e.org.ID}

	// Se carga la caché del miembro antes de delegar.
	_, err := e.guard.RequireAccess(ctx, memberID, "", crmUpdate)
	require.Error(t, err)

	res, err := uc.Delegate(ctx, scope, userRole.ID, dto.RolePermissionsRequest{Permissions: []string{"crm.update", "crm.read"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"crm.read", "crm.update"}, res.Permissions)

	_, err = e.guard.RequireAccess(ctx, memberID, "", crmUpdate)
	assert.NoError(t, err, "la delegación invalida la caché")

	_, err = uc.Delegate(ctx, scope, userRole.ID, dto.RolePermissionsRequest{Permissions: []string{"inventory.read"}})
	assert.ErrorIs(t, err, access.ErrDelegationEscalation)

	_, err = uc.Delegate(ctx, scope, userRole.ID, dto.RolePermissionsRequest{Permissions: []string{"crm.fly"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Delegate(ctx, scope, userRole.ID, dto.RolePermissionsRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Revoke(ctx, scope, userRole.ID, dto.RolePermissionsRequest{Permissions: []string{"crm.update"}})
	require.NoError(t, err)
	_, err = e.guard.RequireAccess(ctx, memberID, "", crmUpdate)
	_, ok := access.IsPermissionError(err)
	assert.True(t, ok)
}

func TestRoleDelegation_RolesProtegidos(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewRoleUseCase(e.store.Roles(), e.store.Organizations(), e.store, e.guard)
	ctx := context.Background()
	admin := e.store.AddUser(entity.User{Role: "org_admin", OrganizationID: e.org.ID})
	scope := e.scopeOf(t, admin, "")
	other := e.store.AddOrganization("Globex", "crm")

	global := e.store.AddRole("", "user", "crm.read")
	_, err := uc.Delegate(ctx, scope, global.ID, dto.RolePermissionsRequest{Permissions: []string{"crm.create"}})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	foreign := e.store.AddRole(other.ID, "user")
	_, err = uc.Delegate(ctx, scope, foreign.ID, dto.RolePermissionsRequest{Permissions: []string{"crm.read"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mgmt := e.store.AddRole(e.org.ID, "management")
	_, err = uc.Delegate(ctx, scope, mgmt.ID, dto.RolePermissionsRequest{Permissions: []string{"crm.read"}})
	assert.ErrorIs(t, err, access.ErrDelegationToAdmin)
}

// ──────────────────────────────────────────────────────────────────────────────
// OrganizationUseCase y WarehouseUseCase
// ──────────────────────────────────────────────────────────────────────────────

func TestOrganizationUseCase(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewOrganizationUseCase(e.store.Organizations())
	ctx := context.Background()
	root := access.Principal{UserID: "root", Role: access.RoleSuperAdmin}

	res, err := uc.Create(ctx, root, dto.CreateOrganizationRequest{Name: "Initech", Modules: []string{"crm", "Sales"}})
	require.NoError(t, err)
	org, err := e.store.Organizations().GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Contains(t, org.EnabledModules, "sales")

	_, err = uc.Create(ctx, root, dto.CreateOrganizationRequest{Name: "Bad", Modules: []string{"billing"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Create(ctx, access.Principal{Role: access.RoleOrgAdmin, OrganizationID: e.org.ID}, dto.CreateOrganizationRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.List(ctx, access.Principal{Role: access.RoleOrgAdmin}, 10, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := uc.List(ctx, root, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)
}

func TestWarehouseUseCase_Aislamiento(t *testing.T) {
	e := newEnv(t)
	uc := usecase.NewWarehouseUseCase(e.store.Warehouses())
	ctx := context.Background()
	other := e.store.AddOrganization("Globex", "inventory")
	mine := access.Scope{OrgID: e.org.ID}
	theirs := access.Scope{OrgID: other.ID}

	w, err := uc.Create(ctx, mine, dto.CreateWarehouseRequest{Name: "Central", Address: "Calle 1"})
	require.NoError(t, err)
	assert.Equal(t, e.org.ID, w.OrganizationID)

	_, err = uc.GetByID(ctx, theirs, w.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Update(ctx, theirs, w.ID, dto.UpdateWarehouseRequest{Name: ptr("Robada")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, theirs, w.ID), domain.ErrNotFound)

	list, err := uc.List(ctx, theirs, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = uc.Update(ctx, mine, w.ID, dto.UpdateWarehouseRequest{OrganizationID: ptr(other.ID)})
	assert.ErrorIs(t, err, domain.ErrImmutableOrganization)

	up, err := uc.Update(ctx, mine, w.ID, dto.UpdateWarehouseRequest{Address: ptr("Calle 2"), OrganizationID: ptr(e.org.ID)})
	require.NoError(t, err)
	assert.Equal(t, "Central", up.Name)
	assert.Equal(t, "Calle 2", up.Address)

	require.NoError(t, uc.Delete(ctx, mine, w.ID))
	_, err = uc.GetByID(ctx, mine, w.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
