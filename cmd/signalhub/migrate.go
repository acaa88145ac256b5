package main

import (
	"errors"
	"fmt"

	"github.com/newthinker/signalhub/internal/backend"
	"github.com/newthinker/signalhub/internal/store"
	"github.com/spf13/cobra"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema to the configured backend",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "load the demo dataset after migrating")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Dial directly: migrate must fail loudly instead of falling back.
	b, err := backend.Dial(ctx, cfg.Backend)
	if err != nil {
		return err
	}
	if b == nil {
		return errors.New("no backend configured (set DATABASE_URL or SQLITE_PATH)")
	}
	defer b.Close()

	m, ok := b.(store.Migrator)
	if !ok {
		return fmt.Errorf("backend %s does not support migrations", b.Name())
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating %s: %w", b.Name(), err)
	}
	fmt.Printf("schema applied to %s\n", b.Name())

	if migrateSeed {
		if err := m.Seed(ctx, store.DefaultDataset()); err != nil {
			return fmt.Errorf("seeding %s: %w", b.Name(), err)
		}
		fmt.Printf("demo dataset loaded (password for seeded logins: %s)\n", store.DemoPassword)
	}
	return nil
}
