package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/PaulBabatuyi/skillshub/internal/config"
	"github.com/PaulBabatuyi/skillshub/internal/data"
	"github.com/PaulBabatuyi/skillshub/internal/db"

	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative tasks",
}

var adminBootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Promote SUPER_ADMIN_EMAIL to admin and demote every other admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.SuperAdmin == "" {
			return errors.New("SUPER_ADMIN_EMAIL must be set")
		}

		ctx := cmd.Context()
		dbClient, err := db.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return fmt.Errorf("connect to DB: %w", err)
		}
		defer func() {
			_ = dbClient.Close(ctx)
		}()

		users := data.NewUsersStore(dbClient.UsersCollection())
		admin, demoted, err := users.PromoteSuperAdmin(ctx, cfg.SuperAdmin)
		if err != nil {
			if errors.Is(err, data.ErrNotFound) {
				return fmt.Errorf("no account registered for %s", cfg.SuperAdmin)
			}
			return err
		}
		log.Printf("%s (%s) is now the admin; %d other admin(s) demoted", admin.Email, admin.ID.Hex(), demoted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminBootstrapCmd)
}
