package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolaschoi7042/itNswinventory-sub001/internal/models"
)

func availabilityCmd() *cobra.Command {
	var (
		category string
		probe    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "availability [asset-id]",
		Short: "Show whether an asset can accept a new assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			src, err := newSource(ctx, logger)
			if err != nil {
				return fmt.Errorf("availability: opening store: %w", err)
			}
			defer func() { _ = src.Close() }()
			eng := newEngine(src, logger)

			if probe {
				res := eng.ProbeRealTimeAvailability(ctx, args[0], models.AssetCategory(category))
				if asJSON {
					return printJSON(res)
				}
				fmt.Printf("%s: available=%t %s\n", args[0], res.Available, res.Reason)
				if res.NextCheckAt != nil {
					fmt.Printf("    retry after %s\n", res.NextCheckAt.Format("15:04:05"))
				}
				return nil
			}

			snap, err := src.Load(ctx)
			if err != nil {
				return fmt.Errorf("availability: loading snapshot: %w", err)
			}
			info, err := eng.ResolveAvailability(args[0], models.AssetCategory(category), snap)
			if err != nil {
				return fmt.Errorf("availability: %w", err)
			}
			if asJSON {
				return printJSON(info)
			}
			printAvailability(info)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "hardware", "asset category (hardware|software)")
	cmd.Flags().BoolVar(&probe, "probe", false, "perform a rate-limited real-time probe instead")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printAvailability(info models.AvailabilityInfo) {
	if !info.Found {
		fmt.Printf("%s: not found\n", info.AssetID)
		return
	}
	fmt.Printf("%s (%s): available=%t", info.AssetID, info.Category, info.IsAvailable)
	if info.Reason != "" {
		fmt.Printf(" (%s)", info.Reason)
	}
	fmt.Println()
	if info.HolderEmployeeID != "" {
		fmt.Printf("    held by %s (assignment %s)\n", info.HolderEmployeeID, info.HolderAssignmentID)
	}
	if info.Capacity > 0 {
		fmt.Printf("    %d/%d licenses in use (%.0f%%)\n", info.CurrentUsers, info.Capacity, info.Utilization)
	}
	if info.NextAvailable != nil {
		fmt.Printf("    next available %s\n", info.NextAvailable.Format("2006-01-02"))
	}
	for _, r := range info.Restrictions {
		fmt.Printf("    restriction [%s] %s: %s\n", r.Level, r.Code, r.Message)
	}
}
