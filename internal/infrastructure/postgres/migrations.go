package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Migration cambio de esquema versionado.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations esquema de organizaciones, usuarios, roles, permisos y bodegas.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "organizations",
			SQL: `
				CREATE TABLE IF NOT EXISTS organizations (
					id              UUID PRIMARY KEY,
					name            VARCHAR(255) NOT NULL,
					status          VARCHAR(20)  NOT NULL DEFAULT 'active',
					enabled_modules JSONB        NOT NULL DEFAULT '{}'::jsonb,
					created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
					updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
				);`,
		},
		{
			Version:     2,
			Description: "users",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id                    UUID PRIMARY KEY,
					organization_id       UUID REFERENCES organizations(id) ON DELETE CASCADE,
					email                 VARCHAR(255) NOT NULL UNIQUE,
					password_hash         TEXT         NOT NULL,
					name                  VARCHAR(255) NOT NULL,
					role                  VARCHAR(30)  NOT NULL,
					status                VARCHAR(20)  NOT NULL DEFAULT 'active',
					reporting_manager_id  UUID REFERENCES users(id) ON DELETE SET NULL,
					assigned_modules      JSONB        NOT NULL DEFAULT '[]'::jsonb,
					submodule_permissions JSONB        NOT NULL DEFAULT '{}'::jsonb,
					created_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
					updated_at            TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
					CHECK (role = 'super_admin' OR organization_id IS NOT NULL)
				);
				CREATE INDEX IF NOT EXISTS idx_users_organization_id ON users(organization_id);`,
		},
		{
			Version:     3,
			Description: "roles and permissions",
			SQL: `
				CREATE TABLE IF NOT EXISTS roles (
					id              UUID PRIMARY KEY,
					organization_id UUID REFERENCES organizations(id) ON DELETE CASCADE,
					name            VARCHAR(100) NOT NULL,
					level           VARCHAR(30)  NOT NULL,
					description     TEXT         NOT NULL DEFAULT '',
					created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
					updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_roles_org_name
					ON roles(COALESCE(organization_id, '00000000-0000-0000-0000-000000000000'::uuid), name);

				CREATE TABLE IF NOT EXISTS permissions (
					id          UUID PRIMARY KEY,
					key         VARCHAR(150) NOT NULL UNIQUE,
					description TEXT         NOT NULL DEFAULT ''
				);

				CREATE TABLE IF NOT EXISTS role_permissions (
					role_id       UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					permission_id UUID NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
					granted_by    UUID REFERENCES users(id) ON DELETE SET NULL,
					granted_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (role_id, permission_id)
				);

				CREATE TABLE IF NOT EXISTS user_roles (
					user_id     UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					role_id     UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
					assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (user_id, role_id)
				);`,
		},
		{
			Version:     4,
			Description: "warehouses",
			SQL: `
				CREATE TABLE IF NOT EXISTS warehouses (
					id              UUID PRIMARY KEY,
					organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
					name            VARCHAR(255) NOT NULL,
					address         TEXT         NOT NULL DEFAULT '',
					created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
					updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
					UNIQUE (organization_id, name)
				);`,
		},
	}
}

// RunMigrations aplica en orden las migraciones pendientes, cada una en su propia transacción.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("crear tabla de migraciones: %w", err)
	}

	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("consultar migraciones: %w", err)
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan migración: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("leer migraciones: %w", err)
	}

	for _, m := range Migrations() {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(ctx, pool, m); err != nil {
			return err
		}
		log.Info().Int("version", m.Version).Str("description", m.Description).Msg("migración aplicada")
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, m Migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migración %d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("ejecutar migración %d: %w", m.Version, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
		m.Version, m.Description,
	); err != nil {
		return fmt.Errorf("registrar migración %d: %w", m.Version, err)
	}
	return tx.Commit(ctx)
}
