package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/application/usecase"
)

// OrganizationHandler maneja organizaciones y su licencia de módulos.
type OrganizationHandler struct {
	orgs    *usecase.OrganizationUseCase
	modules *usecase.ModuleUseCase
}

// NewOrganizationHandler construye el handler inyectando los casos de uso.
func NewOrganizationHandler(orgs *usecase.OrganizationUseCase, modules *usecase.ModuleUseCase) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, modules: modules}
}

// Create godoc
// @Summary      Crear organización
// @Tags         organizations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrganizationRequest  true  "Nombre y módulos iniciales"
// @Success      201   {object}  dto.OrganizationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/organizations [post]
func (h *OrganizationHandler) Create(c *fiber.Ctx) error {
	actor, err := mustPrincipal(c)
	if err != nil {
		return err
	}
	var in dto.CreateOrganizationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return badRequest(c, "VALIDATION", "name es requerido")
	}
	out, err := h.orgs.Create(c.UserContext(), actor, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar organizaciones
// @Tags         organizations
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.OrganizationListResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/organizations [get]
func (h *OrganizationHandler) List(c *fiber.Ctx) error {
	actor, err := mustPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := pageParams(c)
	out, err := h.orgs.List(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener organización por ID
// @Tags         organizations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la organización"
// @Success      200  {object}  dto.OrganizationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/organizations/{id} [get]
func (h *OrganizationHandler) GetByID(c *fiber.Ctx) error {
	scope, err := mustScope(c)
	if err != nil {
		return err
	}
	out, err := h.orgs.GetByID(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ListModules godoc
// @Summary      Estado de licencia de los módulos
// @Tags         organizations
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la organización"
// @Success      200  {object}  dto.OrganizationModulesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/organizations/{id}/modules [get]
func (h *OrganizationHandler) ListModules(c *fiber.Ctx) error {
	scope, err := mustScope(c)
	if err != nil {
		return err
	}
	out, err := h.modules.ListModules(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ToggleModule godoc
// @Summary      Cambiar licencia de un módulo
// @Description  Solo super_admin. Un trial requiere trial_expires_at futuro.
// @Tags         organizations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                   true  "ID de la organización"
// @Param        module  path  string                   true  "Clave del módulo"
// @Param        body    body  dto.ToggleModuleRequest  true  "Nuevo estado"
// @Success      200     {object}  dto.ModuleStatusResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      403     {object}  dto.ErrorResponse
// @Router       /api/organizations/{id}/modules/{module} [put]
func (h *OrganizationHandler) ToggleModule(c *fiber.Ctx) error {
	scope, err := mustScope(c)
	if err != nil {
		return err
	}
	var in dto.ToggleModuleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if in.Status == "" {
		return badRequest(c, "VALIDATION", "status es requerido")
	}
	out, err := h.modules.ToggleModule(c.UserContext(), scope, c.Params("module"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
