package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-suite-api/internal/application/guard"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
)

// HeaderOrganizationID cabecera con la que super_admin elige la organización destino.
const HeaderOrganizationID = "X-Organization-ID"

// Keys de c.Locals con el resultado del guard.
const (
	LocalScope     = "access_scope"
	LocalPrincipal = "access_principal"
)

// accessGuard contrato mínimo del guard; lo implementa *guard.Service.
type accessGuard interface {
	LoadPrincipal(ctx context.Context, id guard.Identity) (access.Principal, error)
	ResolveScope(ctx context.Context, id guard.Identity, requestedOrgID string) (access.Scope, error)
	RequireAccess(ctx context.Context, id guard.Identity, requestedOrgID string, req guard.Requirement) (access.Scope, error)
}

// orgSource de dónde sale la organización solicitada.
type orgSource func(c *fiber.Ctx) string

// requestedOrg cabecera X-Organization-ID o, en su defecto, ?org_id=.
func requestedOrg(c *fiber.Ctx) string {
	if v := c.Get(HeaderOrganizationID); v != "" {
		return v
	}
	return c.Query("org_id")
}

func orgFromParam(name string) orgSource {
	return func(c *fiber.Ctx) string { return c.Params(name) }
}

// RequireAccess declara el par (módulo, acción) de una ruta. Debe ir DESPUÉS de AuthMiddleware.
// Las denegaciones se devuelven como error para que ErrorHandler elija el status.
func RequireAccess(g accessGuard, module access.Module, action access.Action) fiber.Handler {
	return requireAccess(g, guard.Requirement{Module: module, Action: action}, requestedOrg)
}

// RequireSubmoduleAccess como RequireAccess pero sobre un submódulo.
func RequireSubmoduleAccess(g accessGuard, module access.Module, submodule string, action access.Action) fiber.Handler {
	return requireAccess(g, guard.Requirement{Module: module, Submodule: submodule, Action: action}, requestedOrg)
}

// RequireAccessForOrgParam la organización solicitada es el parámetro de ruta param
// (ej. /organizations/:id/modules).
func RequireAccessForOrgParam(g accessGuard, param string, module access.Module, action access.Action) fiber.Handler {
	return requireAccess(g, guard.Requirement{Module: module, Action: action}, orgFromParam(param))
}

func requireAccess(g accessGuard, req guard.Requirement, from orgSource) fiber.Handler {
	if _, err := req.Permission(); err != nil {
		panic(fmt.Sprintf("ruta con requisito de acceso inválido: %v", err))
	}
	return func(c *fiber.Ctx) error {
		scope, err := g.RequireAccess(c.UserContext(), IdentityFrom(c), from(c), req)
		if err != nil {
			return err
		}
		setScope(c, scope)
		return c.Next()
	}
}

// RequireOrgContext solo resuelve usuario y organización. Para rutas cuyo control fino lo
// hace el caso de uso con la jerarquía de roles (menú, delegación de submódulos).
func RequireOrgContext(g accessGuard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope, err := g.ResolveScope(c.UserContext(), IdentityFrom(c), requestedOrg(c))
		if err != nil {
			return err
		}
		setScope(c, scope)
		return c.Next()
	}
}

// RequirePrincipal carga al usuario sin exigir organización (operaciones de plataforma de super_admin).
func RequirePrincipal(g accessGuard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := g.LoadPrincipal(c.UserContext(), IdentityFrom(c))
		if err != nil {
			return err
		}
		c.Locals(LocalPrincipal, p)
		return c.Next()
	}
}

func setScope(c *fiber.Ctx, scope access.Scope) {
	c.Locals(LocalScope, scope)
	c.Locals(LocalPrincipal, scope.Principal)
	c.SetUserContext(access.WithScope(c.UserContext(), scope))
}

// GetScope scope validado por RequireAccess.
func GetScope(c *fiber.Ctx) (access.Scope, bool) {
	s, ok := c.Locals(LocalScope).(access.Scope)
	return s, ok
}

// GetPrincipal usuario cargado por RequirePrincipal o RequireAccess.
func GetPrincipal(c *fiber.Ctx) (access.Principal, bool) {
	p, ok := c.Locals(LocalPrincipal).(access.Principal)
	return p, ok
}

// mustScope para handlers montados detrás de RequireAccess: un handler sin scope es un
// error de cableado de rutas.
func mustScope(c *fiber.Ctx) (access.Scope, error) {
	s, ok := GetScope(c)
	if !ok {
		return access.Scope{}, fmt.Errorf("ruta %s sin RequireAccess", c.Path())
	}
	return s, nil
}

func mustPrincipal(c *fiber.Ctx) (access.Principal, error) {
	p, ok := GetPrincipal(c)
	if !ok {
		return access.Principal{}, fmt.Errorf("ruta %s sin RequirePrincipal", c.Path())
	}
	return p, nil
}
