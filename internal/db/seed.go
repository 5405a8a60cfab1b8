package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrkyc/internal/domain/auth"
	"hrkyc/internal/platform/config"
)

// Seed ensures the bootstrap admin account exists. Employee accounts are
// provisioned by admins at runtime, never seeded.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	if email == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE email = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, is_admin)
    VALUES ($1, $2, true)
  `, email, hash)
	return err
}
