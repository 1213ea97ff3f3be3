package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

func migrateCmd() *cobra.Command {
	var seed string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations and optionally import a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			st, err := store.OpenSQLite(cfg.Store.SQLitePath, logger)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer func() { _ = st.Close() }()

			if err := st.Migrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Printf("Migrated %s\n", cfg.Store.SQLitePath)

			if seed == "" {
				return nil
			}
			snap, err := store.NewFileSource(seed).Load(ctx)
			if err != nil {
				return fmt.Errorf("migrate: reading seed: %w", err)
			}
			if err := st.Import(ctx, snap); err != nil {
				return fmt.Errorf("migrate: importing seed: %w", err)
			}
			fmt.Printf("Imported %d employees, %d assets, %d assignments from %s\n",
				len(snap.Employees), len(snap.Assets), len(snap.Assignments), seed)
			return nil
		},
	}

	cmd.Flags().StringVar(&seed, "seed", "", "YAML or JSON snapshot file to import after migrating")
	return cmd
}
