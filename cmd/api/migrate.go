package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"path/filepath"

	"github.com/PaulBabatuyi/skillshub/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return migrateUp(cfg)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		m, err := newMigrator(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = m.Close()
		}()

		if err := m.Steps(-1); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				return nil
			}
			return fmt.Errorf("migrate down failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func newMigrator(cfg config.Config) (*migrate.Migrate, error) {
	dsn, err := buildMongoURL(cfg.Mongo)
	if err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(cfg.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve migrations dir: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dsn)
	if err != nil {
		return nil, fmt.Errorf("init migrator failed: %w", err)
	}
	return m, nil
}

func migrateUp(cfg config.Config) error {
	m, err := newMigrator(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate up failed: %w", err)
	}
	if v, dirty, err := m.Version(); err == nil {
		log.Printf("migrations applied, version %d (dirty=%t)", v, dirty)
	}
	return nil
}

// buildMongoURL points the connection string at the configured database,
// which the migrate driver reads from the URL path.
func buildMongoURL(cfg config.MongoConfig) (string, error) {
	u, err := url.Parse(cfg.URI)
	if err != nil {
		return "", fmt.Errorf("parse MONGODB_URI: %w", err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return "", fmt.Errorf("unsupported MONGODB_URI scheme %q", u.Scheme)
	}
	u.Path = "/" + cfg.Database
	return u.String(), nil
}
