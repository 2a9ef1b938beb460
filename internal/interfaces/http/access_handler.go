package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/application/guard"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
)

// menuGuard lo implementa *guard.Service.
type menuGuard interface {
	accessGuard
	Menu(ctx context.Context, scope access.Scope) ([]access.MenuItem, error)
}

// AccessHandler expone las decisiones del guard a la UI (menú y comprobaciones puntuales).
type AccessHandler struct {
	g menuGuard
}

// NewAccessHandler construye el handler.
func NewAccessHandler(g menuGuard) *AccessHandler {
	return &AccessHandler{g: g}
}

// Menu godoc
// @Summary      Menú de navegación filtrado
// @Description  Solo incluye entradas con módulo licenciado y permiso concedido. Orientativo: cada endpoint aplica su propio control.
// @Tags         access
// @Security     Bearer
// @Produce      json
// @Param        X-Organization-ID  header  string  false  "Organización destino (super_admin)"
// @Success      200  {array}   access.MenuItem
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/access/menu [get]
func (h *AccessHandler) Menu(c *fiber.Ctx) error {
	scope, err := mustScope(c)
	if err != nil {
		return err
	}
	items, err := h.g.Menu(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Check godoc
// @Summary      Comprobar acceso
// @Description  Evalúa tenant, licencia y permiso sin responder con error.
// @Tags         access
// @Security     Bearer
// @Produce      json
// @Param        module     query  string  true   "Módulo"
// @Param        submodule  query  string  false  "Submódulo"
// @Param        action     query  string  true   "Acción"
// @Param        X-Organization-ID  header  string  false  "Organización destino (super_admin)"
// @Success      200  {object}  dto.AccessCheckResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/access/check [get]
func (h *AccessHandler) Check(c *fiber.Ctx) error {
	m, err := access.ParseModule(c.Query("module"))
	if err != nil {
		return badRequest(c, "VALIDATION", "module inválido")
	}
	a, err := access.ParseAction(c.Query("action"))
	if err != nil {
		return badRequest(c, "VALIDATION", "action inválida")
	}
	req := guard.Requirement{Module: m, Submodule: c.Query("submodule"), Action: a}
	if _, err := req.Permission(); err != nil {
		return badRequest(c, "VALIDATION", "submodule inválido")
	}

	scope, err := h.g.RequireAccess(c.UserContext(), IdentityFrom(c), requestedOrg(c), req)
	if err == nil {
		return c.JSON(dto.AccessCheckResponse{Allowed: true, OrganizationID: scope.OrgID})
	}
	out := dto.AccessCheckResponse{Allowed: false}
	if ee, ok := access.IsEntitlementError(err); ok {
		out.ErrorType = ErrorTypeEntitlement
		out.ModuleKey = string(ee.Module)
		out.Status = string(ee.Status)
		out.Reason = ee.Reason
		return c.JSON(out)
	}
	if pe, ok := access.IsPermissionError(err); ok {
		out.ErrorType = ErrorTypePermission
		out.Permission = pe.Permission.String()
		return c.JSON(out)
	}
	// Tenant y credenciales no son una afordancia de UI: se responden como error.
	return err
}
