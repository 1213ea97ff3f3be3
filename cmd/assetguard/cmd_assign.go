package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

func assignCmd() *cobra.Command {
	var (
		flags   candidateFlags
		pending bool
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Commit an assignment after re-checking it against the store",
		Long: `Commits a new assignment. The conflict check runs again inside the store's
write transaction; any critical or high conflict aborts the commit.
Requires a writable store (store.driver: sqlite).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			c, err := flags.candidate()
			if err != nil {
				return fmt.Errorf("assign: %w", err)
			}

			src, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("assign: opening store: %w", err)
			}
			defer func() { _ = src.Close() }()

			committer, ok := src.(store.Committer)
			if !ok {
				return fmt.Errorf("assign: store driver %q is read-only", cfg.Store.Driver)
			}

			status := models.AssignmentActive
			if pending {
				status = models.AssignmentPending
			}

			a, report, err := newEngine(src, logger).Commit(ctx, committer, c, status)
			if err != nil {
				if store.IsStale(err) {
					printReport(report)
				}
				return fmt.Errorf("assign: %w", err)
			}

			fmt.Printf("Committed assignment %s (%s -> %s, %s)\n", a.ID, a.AssetID, a.EmployeeID, a.Status)
			if len(report.Conflicts) > 0 || len(report.Warnings) > 0 {
				printReport(report)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&pending, "pending", false, "reserve the asset instead of handing it out now")
	return cmd
}
