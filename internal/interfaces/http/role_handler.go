package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/application/usecase"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
)

// RoleHandler delegación y revocación de permisos sobre roles.
type RoleHandler struct {
	uc *usecase.RoleUseCase
}

// NewRoleHandler construye el handler.
func NewRoleHandler(uc *usecase.RoleUseCase) *RoleHandler {
	return &RoleHandler{uc: uc}
}

// Delegate godoc
// @Summary      Delegar permisos a un rol
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del rol"
// @Param        body  body  dto.RolePermissionsRequest  true  "Permisos"
// @Success      200   {object}  dto.RolePermissionsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/roles/{id}/permissions [post]
func (h *RoleHandler) Delegate(c *fiber.Ctx) error {
	scope, in, err := h.parse(c)
	if err != nil || in == nil {
		return err
	}
	out, err := h.uc.Delegate(c.UserContext(), scope, c.Params("id"), *in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Revoke godoc
// @Summary      Revocar permisos de un rol
// @Tags         roles
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del rol"
// @Param        body  body  dto.RolePermissionsRequest  true  "Permisos"
// @Success      200   {object}  dto.RolePermissionsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/roles/{id}/permissions [delete]
func (h *RoleHandler) Revoke(c *fiber.Ctx) error {
	scope, in, err := h.parse(c)
	if err != nil || in == nil {
		return err
	}
	out, err := h.uc.Revoke(c.UserContext(), scope, c.Params("id"), *in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// parse devuelve in == nil cuando ya respondió 400.
func (h *RoleHandler) parse(c *fiber.Ctx) (scope access.Scope, in *dto.RolePermissionsRequest, err error) {
	scope, err = mustScope(c)
	if err != nil {
		return scope, nil, err
	}
	var body dto.RolePermissionsRequest
	if err := c.BodyParser(&body); err != nil {
		return scope, nil, invalidBody(c)
	}
	if len(body.Permissions) == 0 {
		return scope, nil, badRequest(c, "VALIDATION", "permissions es requerido")
	}
	return scope, &body, nil
}
