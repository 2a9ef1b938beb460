package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-suite-api/internal/application/auth"
	"github.com/jhoicas/erp-suite-api/internal/application/dto"
	"github.com/jhoicas/erp-suite-api/internal/application/guard"
	"github.com/jhoicas/erp-suite-api/internal/application/usecase"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/entity"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/erp-suite-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/erp-suite-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "erp-suite-test"
	testExpMin    = 60
	testOrigin    = "https://app.example.test"
)

// testEnv API completa sobre el store en memoria.
type testEnv struct {
	store *memory.Store
	guard *guard.Service
	app   *fiber.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	policy := access.NewEntitlementPolicy(
		[]access.Module{access.ModuleEmail, access.ModuleDashboard},
		[]access.Module{access.ModuleSettings, access.ModuleAdmin, access.ModuleOrganization},
		time.Now,
	)
	g := guard.NewService(store.Organizations(), store.Users(), store.Roles(), policy)

	origins := []string{testOrigin}
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(origins, zerolog.Nop())})
	app.Use(cors.New(cors.Config{AllowOrigins: testOrigin, AllowCredentials: true}))
	apphttp.Router(app, apphttp.RouterDeps{
		Guard:          g,
		AuthUC:         auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, Issuer: testIssuer, ExpMinutes: testExpMin}),
		OrganizationUC: usecase.NewOrganizationUseCase(store.Organizations()),
		ModuleUC:       usecase.NewModuleUseCase(store.Organizations(), g),
		UserUC:         usecase.NewUserUseCase(store.Users(), store.Organizations(), store.Roles(), store, g),
		RoleUC:         usecase.NewRoleUseCase(store.Roles(), store.Organizations(), store, g),
		WarehouseUC:    usecase.NewWarehouseUseCase(store.Warehouses()),
		JWTSecret:      testJWTSecret,
	})
	return &testEnv{store: store, guard: g, app: app}
}

// tokenFor genera un JWT para el usuario sembrado.
func tokenFor(t *testing.T, u *entity.User) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, u.ID, u.OrganizationID, u.Role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

type reqOpt func(*http.Request)

func withOrg(orgID string) reqOpt {
	return func(r *http.Request) { r.Header.Set(apphttp.HeaderOrganizationID, orgID) }
}

func withOrigin(origin string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Origin", origin) }
}

func (e *testEnv) do(t *testing.T, method, path, authHeader string, body any, opts ...reqOpt) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	for _, o := range opts {
		o(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
