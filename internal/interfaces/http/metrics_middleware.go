package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// httpObserver lo implementa *metrics.Metrics.
type httpObserver interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// MetricsMiddleware registra cada petición por ruta declarada (no por path, para acotar etiquetas).
func MetricsMiddleware(m httpObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status, _ = errorResponse(err)
		}
		m.ObserveHTTP(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
