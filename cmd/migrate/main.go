// Command migrate aplica el esquema en PostgreSQL y, si SUPERADMIN_EMAIL está definido,
// crea el super_admin de plataforma.
package main

import (
	"context"
	"time"

	"github.com/jhoicas/erp-suite-api/internal/application/auth"
	"github.com/jhoicas/erp-suite-api/internal/infrastructure/postgres"
	"github.com/jhoicas/erp-suite-api/pkg/config"
	"github.com/jhoicas/erp-suite-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}
	log.Info().Msg("esquema al día")

	if cfg.Bootstrap.Email == "" {
		return
	}
	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	created, err := authUC.BootstrapSuperAdmin(ctx, cfg.Bootstrap.Email, cfg.Bootstrap.Password, cfg.Bootstrap.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("crear super_admin")
	}
	if created {
		log.Info().Str("email", cfg.Bootstrap.Email).Msg("super_admin creado")
	} else {
		log.Info().Str("email", cfg.Bootstrap.Email).Msg("super_admin ya existía")
	}
}
