package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/sweep"
)

func sweepCmd() *cobra.Command {
	var (
		schedule bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run the compliance sweep (expiry, maintenance, overdue returns, pending re-checks)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			src, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("sweep: opening store: %w", err)
			}
			defer func() { _ = src.Close() }()

			m := sweep.NewManager(src, newEngine(src, logger), cfg.Sweep.Parallelism, logger)

			if schedule {
				s := sweep.NewScheduler(m, cfg.Sweep.Schedule, logger)
				if err := s.Start(ctx); err != nil {
					return fmt.Errorf("sweep: %w", err)
				}
				<-ctx.Done()
				s.Stop()
				return nil
			}

			report, err := m.Run(ctx)
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}
			if asJSON {
				return printJSON(report)
			}

			fmt.Printf("Sweep report:\n")
			fmt.Printf("  Warnings:         %d\n", len(report.Warnings))
			fmt.Printf("  Overdue returns:  %d\n", len(report.Overdue))
			fmt.Printf("  Pending checked:  %d\n", report.PendingChecked)
			fmt.Printf("  Pending blocked:  %d\n", len(report.PendingBlocked))
			for _, w := range report.Warnings {
				fmt.Printf("  [%s] %s\n", w.Category, w.Message)
			}
			for _, p := range report.PendingBlocked {
				fmt.Printf("  pending %s (%s -> %s):\n", p.AssignmentID, p.AssetID, p.EmployeeID)
				for _, c := range p.Conflicts {
					fmt.Printf("    [%s] %s\n", c.Severity, c.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&schedule, "schedule", false, "keep running on sweep.schedule until interrupted")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
