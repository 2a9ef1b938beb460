package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
)

// Valores de error_type en las respuestas 403.
const (
	ErrorTypeEntitlement = "entitlement_denied"
	ErrorTypePermission  = "permission_denied"
)

// ErrorHandler traduce los errores tipados del dominio a status HTTP y cuerpo dto.ErrorResponse.
// Vuelve a poner las cabeceras CORS para que las respuestas de error las lleven siempre.
func ErrorHandler(allowOrigins []string, log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		applyCORS(c, allowOrigins)
		status, body := errorResponse(err)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("request_id", requestID(c)).
				Msg("error no controlado")
		}
		return c.Status(status).JSON(body)
	}
}

func errorResponse(err error) (int, dto.ErrorResponse) {
	if te, ok := access.IsTenantError(err); ok {
		if te.Kind == access.NoOrganizationContext {
			return fiber.StatusBadRequest, dto.ErrorResponse{Code: "NO_ORGANIZATION_CONTEXT", Message: "indique la organización con X-Organization-ID"}
		}
		// 404 y no 403: no se confirma que el recurso exista en otra organización.
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"}
	}
	if ee, ok := access.IsEntitlementError(err); ok {
		return fiber.StatusForbidden, dto.ErrorResponse{
			Code:      "MODULE_NOT_ENABLED",
			Message:   fmt.Sprintf("El módulo %s no está habilitado para su organización. Contacte a su administrador.", ee.Module),
			ErrorType: ErrorTypeEntitlement,
			ModuleKey: string(ee.Module),
			Submodule: ee.Submodule,
			Status:    string(ee.Status),
			Reason:    ee.Reason,
		}
	}
	if pe, ok := access.IsPermissionError(err); ok {
		return fiber.StatusForbidden, dto.ErrorResponse{
			Code:       "FORBIDDEN",
			Message:    "no tiene permiso para esta operación",
			ErrorType:  ErrorTypePermission,
			Permission: pe.Permission.String(),
		}
	}

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code, dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas o sesión no válida"}
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrEmailAlreadyExists), errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case isForbidden(err):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error(), ErrorType: ErrorTypePermission}
	case isValidation(err):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

func isForbidden(err error) bool {
	for _, target := range []error{
		domain.ErrForbidden,
		access.ErrHierarchy,
		access.ErrDelegationToAdmin,
		access.ErrDelegationEscalation,
		access.ErrOutsideManagerScope,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isValidation(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidInput,
		domain.ErrImmutableOrganization,
		access.ErrUnknownModule,
		access.ErrUnknownAction,
		access.ErrInvalidPermission,
		access.ErrInvalidRole,
		access.ErrManagerWithoutModules,
		access.ErrExecutiveWithoutManager,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func applyCORS(c *fiber.Ctx, allowOrigins []string) {
	origin := c.Get(fiber.HeaderOrigin)
	if origin == "" {
		return
	}
	for _, o := range allowOrigins {
		switch o {
		case "*":
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
			return
		case origin:
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
			c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
			c.Vary(fiber.HeaderOrigin)
			return
		}
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
