package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/erp-suite-api/internal/application/auth"
	"github.com/jhoicas/erp-suite-api/internal/application/guard"
	"github.com/jhoicas/erp-suite-api/internal/application/usecase"
	"github.com/jhoicas/erp-suite-api/internal/domain/access"
	"github.com/jhoicas/erp-suite-api/internal/domain/repository"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/cache"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/memory"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/metrics"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/erp-suite-api/internal/interfaces/http"
	"github.com/jhoicas/erp-suite-api/pkg/config"
	"github.com/jhoicas/erp-suite-api/pkg/logger"
)

// storage repos de la app sobre PostgreSQL o en memoria.
type storage struct {
	orgs       repository.OrganizationRepository
	users      repository.UserRepository
	roles      repository.RoleRepository
	warehouses repository.WarehouseRepository
	tx         usecase.TxRunner
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: el login no podrá emitir tokens")
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	policy, err := entitlementPolicy(cfg.Access)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de módulos")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	guardOpts := []guard.Option{
		guard.WithRecorder(appMetrics),
		guard.WithLogger(log.Component("guard")),
	}
	if permCache, closeCache := permissionCache(cfg, log); permCache != nil {
		defer closeCache()
		guardOpts = append(guardOpts, guard.WithCache(permCache))
	}
	accessGuard := guard.NewService(store.orgs, store.users, store.roles, policy, guardOpts...)

	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(cfg.CORS.AllowOrigins, log.Component("http")),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))
	app.Use(httpRouter.RequestLogger(log.Component("http")))
	app.Use(httpRouter.MetricsMiddleware(appMetrics))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ERP Suite API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(appMetrics.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Guard:          accessGuard,
		AuthUC:         authUC,
		OrganizationUC: usecase.NewOrganizationUseCase(store.orgs),
		ModuleUC:       usecase.NewModuleUseCase(store.orgs, accessGuard),
		UserUC:         usecase.NewUserUseCase(store.users, store.orgs, store.roles, store.tx, accessGuard),
		RoleUC:         usecase.NewRoleUseCase(store.roles, store.orgs, store.tx, accessGuard),
		WarehouseUC:    usecase.NewWarehouseUseCase(store.warehouses),
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.Storage == "memory" {
		mem := memory.NewStore()
		creds, err := mem.SeedDemo("demo1234")
		if err != nil {
			return nil, err
		}
		log.Warn().
			Str("organization_id", creds.OrganizationID).
			Interface("emails", creds.Emails).
			Str("password", creds.Password).
			Msg("almacenamiento en memoria con datos de demostración")
		return &storage{
			orgs:       mem.Organizations(),
			users:      mem.Users(),
			roles:      mem.Roles(),
			warehouses: mem.Warehouses(),
			tx:         mem,
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		orgs:       postgres.NewOrganizationRepository(pool),
		users:      postgres.NewUserRepository(pool),
		roles:      postgres.NewRoleRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		tx:         postgres.NewTxRunner(pool),
		close:      pool.Close,
	}, nil
}

// permissionCache Redis si REDIS_ADDR está definido; si no, LRU en proceso. TTL 0 desactiva la caché.
func permissionCache(cfg *config.Config, log *logger.Logger) (guard.PermissionCache, func()) {
	if cfg.Access.CacheTTLSeconds <= 0 {
		log.Info().Msg("caché de permisos desactivada")
		return nil, nil
	}
	ttl := time.Duration(cfg.Access.CacheTTLSeconds) * time.Second
	if cfg.Redis.Addr == "" {
		return cache.NewLRUCache(cfg.Access.CacheSize, ttl), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de permisos en Redis")
	return cache.NewRedisCache(client, ttl, log.Component("cache")), func() { _ = client.Close() }
}

func entitlementPolicy(cfg config.AccessConfig) (*access.EntitlementPolicy, error) {
	alwaysOn, err := parseModules(cfg.AlwaysOnModules)
	if err != nil {
		return nil, err
	}
	rbacOnly, err := parseModules(cfg.RBACOnlyModules)
	if err != nil {
		return nil, err
	}
	return access.NewEntitlementPolicy(alwaysOn, rbacOnly, time.Now), nil
}

func parseModules(raw []string) ([]access.Module, error) {
	out := make([]access.Module, 0, len(raw))
	for _, r := range raw {
		m, err := access.ParseModule(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// corsConfig fiber no admite credenciales con origen comodín.
func corsConfig(origins []string) cors.Config {
	joined := strings.Join(origins, ",")
	return cors.Config{
		AllowOrigins:     joined,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + httpRouter.HeaderOrganizationID,
		AllowCredentials: !strings.Contains(joined, "*"),
	}
}
