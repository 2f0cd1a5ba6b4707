// Package migrations embeds the SQL schema and applies it in file-name order.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed *.up.sql
var files embed.FS

// Versions returns the embedded migration names without the .up.sql suffix, sorted.
func Versions() ([]string, error) {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	versions := make([]string, 0, len(names))
	for _, n := range names {
		versions = append(versions, strings.TrimSuffix(n, ".up.sql"))
	}
	return versions, nil
}

// Apply runs every migration that is not yet recorded in schema_migrations.
// Each migration runs in its own transaction together with its bookkeeping row.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) (int, error) {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	versions, err := Versions()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, v := range versions {
		var exists bool
		if err := pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", v,
		).Scan(&exists); err != nil {
			return applied, err
		}
		if exists {
			continue
		}

		body, err := files.ReadFile(v + ".up.sql")
		if err != nil {
			return applied, err
		}

		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", v)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %s: %w", v, err)
		}
		logger.Info("Applied migration", zap.String("version", v))
		applied++
	}
	return applied, nil
}
