package cmd

import (
	"fmt"

	"github.com/frahmantamala/construction-dashboard/internal/tokenstore"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the token store schema migrations (sqlite and postgres drivers)",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}

	driver := cfg.TokenStore.Driver
	if driver != "sqlite" && driver != "postgres" {
		return fmt.Errorf("token store driver %q has no schema to migrate", driver)
	}

	db, err := tokenstore.Connect(ctx, driver, tokenstore.DSN(cfg.TokenStore))
	if err != nil {
		return err
	}
	defer db.Close()

	if migrateRollback {
		if err := tokenstore.Rollback(ctx, db.DB, driver); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "rolled back the latest token store migration")
		return nil
	}

	if err := tokenstore.Migrate(ctx, db.DB, driver); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "token store schema is up to date")
	return nil
}
