package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/store"
)

func validateCmd() *cobra.Command {
	var (
		employee string
		asset    string
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate whether an employee may receive an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			src, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("validate: opening store: %w", err)
			}
			defer func() { _ = src.Close() }()

			snap, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("validate: loading snapshot: %w", err)
			}
			emp, err := store.FindEmployee(snap, employee)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			res, err := newEngine(src, logger).ValidateEligibility(emp, asset, models.AssetCategory(category), snap)
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			if asJSON {
				return printJSON(res)
			}

			fmt.Printf("can proceed: %t | requires approval: %t\n", res.CanProceed, res.RequiresApproval)
			for _, is := range res.Issues {
				fmt.Printf("issue [%s] %s\n", is.Code, is.Message)
				if is.Remediation != "" {
					fmt.Printf("    %s\n", is.Remediation)
				}
			}
			for _, w := range res.Warnings {
				fmt.Printf("warning [%s] %s (overridable: %t)\n", w.Code, w.Message, w.Overridable)
			}
			for _, rec := range res.Recommendations {
				fmt.Printf("- %s\n", rec)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&employee, "employee", "", "employee ID")
	cmd.Flags().StringVar(&asset, "asset", "", "asset ID")
	cmd.Flags().StringVar(&category, "category", "hardware", "asset category (hardware|software)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}
