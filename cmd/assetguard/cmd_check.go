package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/engine"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/resolution"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/review"
)

func checkCmd() *cobra.Command {
	var (
		flags       candidateFlags
		autoResolve bool
		withReview  bool
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a proposed assignment for conflicts",
		Long: `Checks a proposed assignment and prints conflicts, warnings and proposals.
Exits non-zero when a critical conflict blocks the assignment.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			c, err := flags.candidate()
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}

			src, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("check: opening store: %w", err)
			}
			defer func() { _ = src.Close() }()

			snap, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("check: loading snapshot: %w", err)
			}

			eng := newEngine(src, logger)
			report, err := eng.DetectConflicts(c, snap)
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}

			if asJSON {
				if err := printJSON(report); err != nil {
					return err
				}
				return blockingError(report)
			}
			printReport(report)

			if autoResolve {
				for _, cf := range report.Conflicts {
					conflict, proposal, ok := report.Proposal(cf.ID, "")
					if !ok {
						continue
					}
					res := eng.AttemptAutomatedResolution(conflict, proposal, resolution.ResolutionContext{Candidate: c, Snapshot: snap})
					printAttempt(conflict, proposal, res)
				}
			}

			if withReview {
				reviewer := review.NewReviewer(cfg.Claude.APIKey, cfg.Claude.Model, logger)
				for _, cf := range report.Conflicts {
					var proposals []models.ResolutionProposal
					for _, p := range report.Proposals {
						if p.ConflictID == cf.ID {
							proposals = append(proposals, p)
						}
					}
					b := reviewer.Draft(ctx, cf, proposals)
					fmt.Printf("\nReview brief for %s:\n  %s\n", cf.ID, b.Summary)
					for i, step := range b.Checklist {
						fmt.Printf("  %d. %s\n", i+1, step)
					}
				}
			}

			return blockingError(report)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&autoResolve, "auto-resolve", false, "attempt the first automated proposal for each conflict")
	cmd.Flags().BoolVar(&withReview, "review", false, "draft a review brief for each conflict (uses Claude when configured)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// blockingError turns a report with a critical conflict into a non-zero exit.
func blockingError(r engine.Report) error {
	if !r.Blocking() {
		return nil
	}
	n := 0
	for _, c := range r.Conflicts {
		if c.Severity == models.SeverityCritical {
			n++
		}
	}
	return fmt.Errorf("check: %d critical conflict(s) block this assignment", n)
}

func printReport(r engine.Report) {
	if !r.HasConflicts {
		fmt.Println("No conflicts.")
	}
	for i := range r.Conflicts {
		c := &r.Conflicts[i]
		fmt.Printf("[%s] %s/%s: %s\n", c.Severity, c.Dimension, c.Cause, c.Description)
		fmt.Printf("    ID: %s | auto-resolvable: %t\n", c.ID, c.AutoResolvable)
		for _, p := range r.Proposals {
			if p.ConflictID == c.ID {
				fmt.Printf("    -> %s (%.2f, %s, automated: %t)\n", p.Strategy, p.Confidence, p.EstimatedTime, p.Automated)
			}
		}
	}
	for _, w := range r.Warnings {
		fmt.Printf("warning [%s] %s\n", w.Category, w.Message)
		if w.Recommendation != "" {
			fmt.Printf("    %s\n", w.Recommendation)
		}
	}
}

func printAttempt(c models.Conflict, p models.ResolutionProposal, res resolution.AttemptResult) {
	if !res.Success {
		fmt.Printf("\n%s via %s: %s\n", c.Cause, p.Strategy, res.Message)
		return
	}
	rc := res.RevisedCandidate
	end := "open-ended"
	if rc.ExpectedReturnDate != nil {
		end = rc.ExpectedReturnDate.Format("2006-01-02")
	}
	fmt.Printf("\n%s via %s: %s\n    revised: %s -> %s from %s to %s\n",
		c.Cause, p.Strategy, res.Message, rc.EmployeeID, rc.AssetID, rc.AssignedDate.Format("2006-01-02"), end)
}
