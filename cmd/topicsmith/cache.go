// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the research cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache tier sizes and hit counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		stats := svc.orch.GetCacheStats(context.Background())
		fmt.Printf("Memory entries:     %d\n", stats.MemoryEntries)
		fmt.Printf("Persistent entries: %d\n", stats.PersistentEntries)
		fmt.Printf("Hits:               %d\n", stats.Hits)
		fmt.Printf("Misses:             %d\n", stats.Misses)
		fmt.Printf("Evictions:          %d\n", stats.Evictions)
		return nil
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge expired and over-cap cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cmd)
		if err != nil {
			return err
		}
		defer svc.Close()

		cleaned, err := svc.orch.CleanupCache(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Cleaned %d entries\n", cleaned)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)

	rootCmd.AddCommand(cacheCmd)
}
