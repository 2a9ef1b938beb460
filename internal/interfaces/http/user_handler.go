package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/application/usecase"
)

// UserHandler alta de usuarios y delegación de submódulos.
type UserHandler struct {
	uc *usecase.UserUseCase
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *usecase.UserUseCase) *UserHandler {
	return &UserHandler{uc: uc}
}

// Create godoc
// @Summary      Crear usuario
// @Description  El actor solo crea roles inferiores al suyo, dentro de su organización.
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateUserRequest  true  "Datos del usuario"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	scope, err := mustScope(c)
	if err != nil {
		return err
	}
	var in dto.CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if strings.TrimSpace(in.Email) == "" || in.Name == "" || in.Role == "" {
		return badRequest(c, "VALIDATION", "email, name y role son requeridos")
	}
	if len(in.Password) < 8 {
		return badRequest(c, "VALIDATION", "password debe tener al menos 8 caracteres")
	}
	out, err := h.uc.CreateUser(c.UserContext(), scope, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar usuarios de la organización
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.UserListResponse
// @Router       /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	scope, err := mustScope(c)
	if err != nil {
		return err
	}
	limit, offset := pageParams(c)
	out, err := h.uc.List(c.UserContext(), scope, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// DelegateSubmodules godoc
// @Summary      Delegar submódulos a un executive
// @Description  Reemplaza los pares submódulo/acción del executive. Solo dentro de los módulos de su manager.
// @Tags         users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true  "ID del executive"
// @Param        body  body  dto.DelegateSubmodulesRequest  true  "Submódulos y acciones"
// @Success      200   {object}  dto.UserResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/users/{id}/submodules [put]
func (h *UserHandler) DelegateSubmodules(c *fiber.Ctx) error {
	scope, err := mustScope(c)
	if err != nil {
		return err
	}
	var in dto.DelegateSubmodulesRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.DelegateSubmodules(c.UserContext(), scope, c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
