package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-suite-api/internal/domain"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	apphttp "github.com/jhoicas/erp-suite-api/internal/interfaces/http"
)

// failingApp app sin middleware CORS: las cabeceras solo pueden venir del ErrorHandler.
func failingApp(err error, origins ...string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(origins, zerolog.Nop())})
	app.Get("/fail", func(c *fiber.Ctx) error { return err })
	return app
}

func callFail(t *testing.T, app *fiber.App, origin string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestErrorHandler_MapeoDeErrores(t *testing.T) {
	perm := access.MustPermission("crm.read")
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"tenant mismatch", &access.TenantError{Kind: access.TenantMismatch}, http.StatusNotFound, "NOT_FOUND"},
		{"sin organización", &access.TenantError{Kind: access.NoOrganizationContext}, http.StatusBadRequest, "NO_ORGANIZATION_CONTEXT"},
		{"licencia", &access.EntitlementError{Module: access.ModuleCRM, Status: access.StatusDisabled}, http.StatusForbidden, "MODULE_NOT_ENABLED"},
		{"permiso", &access.PermissionError{Permission: perm}, http.StatusForbidden, "FORBIDDEN"},
		{"permiso envuelto", fmt.Errorf("ctx: %w", &access.PermissionError{Permission: perm}), http.StatusForbidden, "FORBIDDEN"},
		{"no autorizado", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"no encontrado", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"usuario no encontrado", domain.ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"duplicado", domain.ErrEmailAlreadyExists, http.StatusConflict, "CONFLICT"},
		{"jerarquía", access.ErrHierarchy, http.StatusForbidden, "FORBIDDEN"},
		{"escalada", fmt.Errorf("%w: crm.delete", access.ErrDelegationEscalation), http.StatusForbidden, "FORBIDDEN"},
		{"validación", fmt.Errorf("%w: x", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION"},
		{"manager sin módulos", access.ErrManagerWithoutModules, http.StatusBadRequest, "VALIDATION"},
		{"fiber", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"otro", errors.New("db caída"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := callFail(t, failingApp(tc.err), "")
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp).Code)
		})
	}
}

func TestErrorHandler_InternoNoFiltraDetalle(t *testing.T) {
	resp := callFail(t, failingApp(errors.New("pq: password authentication failed")), "")
	body := decodeError(t, resp)
	assert.NotContains(t, body.Message, "password")
}

func TestErrorHandler_DetalleDeLicenciaYPermiso(t *testing.T) {
	resp := callFail(t, failingApp(&access.EntitlementError{
		Module: access.ModuleCRM, Submodule: "leads", Status: access.StatusTrialExpired, Reason: "trial expired",
	}), "")
	body := decodeError(t, resp)
	assert.Equal(t, apphttp.ErrorTypeEntitlement, body.ErrorType)
	assert.Equal(t, "crm", body.ModuleKey)
	assert.Equal(t, "leads", body.Submodule)
	assert.Equal(t, "trial_expired", body.Status)
	assert.Equal(t, "trial expired", body.Reason)

	resp = callFail(t, failingApp(&access.PermissionError{Permission: access.MustPermission("crm_leads_delete")}), "")
	body = decodeError(t, resp)
	assert.Equal(t, apphttp.ErrorTypePermission, body.ErrorType)
	assert.Equal(t, "crm_leads_delete", body.Permission)
	assert.Empty(t, body.ModuleKey)
}

// ──────────────────────────────────────────────────────────────────────────────
// CORS en respuestas de error
// ──────────────────────────────────────────────────────────────────────────────

func TestErrorHandler_CORSOrigenPermitido(t *testing.T) {
	app := failingApp(&access.PermissionError{Permission: access.MustPermission("crm.read")}, testOrigin)
	resp := callFail(t, app, testOrigin)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Vary"), "Origin")
}

func TestErrorHandler_CORSOrigenNoPermitido(t *testing.T) {
	app := failingApp(domain.ErrNotFound, testOrigin)
	resp := callFail(t, app, "https://evil.example.test")
	defer resp.Body.Close()

	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestErrorHandler_CORSComodin(t *testing.T) {
	app := failingApp(errors.New("boom"), "*")
	resp := callFail(t, app, "https://cualquiera.example.test")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_DenegacionLlevaCabecerasCORS(t *testing.T) {
	e := newTestEnv(t)
	org := e.store.AddOrganization("Org", "crm")
	u := e.store.AddUser(entity.User{Role: "user", OrganizationID: org.ID})

	resp := e.do(t, http.MethodGet, "/api/warehouses", tokenFor(t, u), nil, withOrigin(testOrigin))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}
