package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-suite-api/internal/application/dto"
)

// pageParams limit/offset de la query con los límites de siempre (1..100, 20 por defecto).
func pageParams(c *fiber.Ctx) (int, int) {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p.Limit, p.Offset
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func invalidBody(c *fiber.Ctx) error {
	return badRequest(c, "INVALID_BODY", "cuerpo inválido")
}
