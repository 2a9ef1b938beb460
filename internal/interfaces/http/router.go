package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-suite-api/internal/application/auth"
	"github.com/jhoicas/erp-suite-api/internal/application/guard"
	"github.com/jhoicas/erp-suite-api/internal/application/usecase"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Guard          *guard.Service
	AuthUC         *auth.AuthUseCase
	OrganizationUC *usecase.OrganizationUseCase
	ModuleUC       *usecase.ModuleUseCase
	UserUC         *usecase.UserUseCase
	RoleUC         *usecase.RoleUseCase
	WarehouseUC    *usecase.WarehouseUseCase
	JWTSecret      string
}

// Router registra las rutas de la API. Cada ruta protegida declara un único (módulo, acción).
func Router(app *fiber.App, deps RouterDeps) {
	g := deps.Guard
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Access: afordancias para la UI
	accessHandler := NewAccessHandler(g)
	protected.Get("/access/menu", RequireOrgContext(g), accessHandler.Menu)
	protected.Get("/access/check", accessHandler.Check)

	// Organizations
	orgHandler := NewOrganizationHandler(deps.OrganizationUC, deps.ModuleUC)
	orgs := protected.Group("/organizations")
	orgs.Post("/", RequirePrincipal(g), orgHandler.Create)
	orgs.Get("/", RequirePrincipal(g), orgHandler.List)
	orgs.Get("/:id", RequireAccessForOrgParam(g, "id", access.ModuleOrganization, access.ActionRead), orgHandler.GetByID)
	orgs.Get("/:id/modules", RequireAccessForOrgParam(g, "id", access.ModuleOrganization, access.ActionRead), orgHandler.ListModules)
	orgs.Put("/:id/modules/:module", RequireAccessForOrgParam(g, "id", access.ModuleOrganization, access.ActionManage), orgHandler.ToggleModule)

	// Users
	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/users")
	users.Post("/", RequireAccess(g, access.ModuleAdmin, access.ActionCreate), userHandler.Create)
	users.Get("/", RequireAccess(g, access.ModuleAdmin, access.ActionRead), userHandler.List)
	// La jerarquía manager -> executive la valida el caso de uso.
	users.Put("/:id/submodules", RequireOrgContext(g), userHandler.DelegateSubmodules)

	// Roles
	roleHandler := NewRoleHandler(deps.RoleUC)
	roles := protected.Group("/roles")
	roles.Post("/:id/permissions", RequireAccess(g, access.ModuleAdmin, access.ActionUpdate), roleHandler.Delegate)
	roles.Delete("/:id/permissions", RequireAccess(g, access.ModuleAdmin, access.ActionUpdate), roleHandler.Revoke)

	// Warehouses (módulo inventory)
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses := protected.Group("/warehouses")
	warehouses.Post("/", RequireAccess(g, access.ModuleInventory, access.ActionCreate), warehouseHandler.Create)
	warehouses.Get("/", RequireAccess(g, access.ModuleInventory, access.ActionRead), warehouseHandler.List)
	warehouses.Get("/:id", RequireAccess(g, access.ModuleInventory, access.ActionRead), warehouseHandler.GetByID)
	warehouses.Put("/:id", RequireAccess(g, access.ModuleInventory, access.ActionUpdate), warehouseHandler.Update)
	warehouses.Delete("/:id", RequireAccess(g, access.ModuleInventory, access.ActionDelete), warehouseHandler.Delete)
}
