package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// pinger is implemented by stores with a live connection.
type pinger interface {
	Ping(ctx context.Context) error
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the configured store and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			src, err := newSource(ctx, logger)
			if err != nil {
				fmt.Printf("Store (%s): FAIL (%v)\n", cfg.Store.Driver, err)
				allOK = false
			} else {
				defer func() { _ = src.Close() }()
				if p, ok := src.(pinger); ok {
					err = p.Ping(ctx)
				}
				if err == nil {
					var n int
					snap, loadErr := src.Load(ctx)
					err = loadErr
					if err == nil {
						err = snap.Validate()
						n = len(snap.Assets)
					}
					if err == nil {
						fmt.Printf("Store (%s): OK (%d assets)\n", cfg.Store.Driver, n)
					}
				}
				if err != nil {
					fmt.Printf("Store (%s): FAIL (%v)\n", cfg.Store.Driver, err)
					allOK = false
				}
			}

			// The reviewer degrades to step lists without a key, so this is informational.
			if cfg.Claude.APIKey == "" {
				fmt.Println("Claude API: not configured (review briefs use proposal steps)")
			} else {
				fmt.Println("Claude API: OK")
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
