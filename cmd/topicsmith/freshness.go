// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topicsmith/pkg/types"
)

var freshnessCmd = &cobra.Command{
	Use:   "freshness [topic]",
	Short: "Report whether a topic's research is stale",
	Args:  cobra.ExactArgs(1),
	RunE:  runFreshness,
}

func init() {
	freshnessCmd.Flags().Int("ttl-days", 0, "staleness threshold in days (0 uses the cache TTL)")

	rootCmd.AddCommand(freshnessCmd)
}

func runFreshness(cmd *cobra.Command, args []string) error {
	svc, err := buildService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	ttlDays, _ := cmd.Flags().GetInt("ttl-days")
	f, err := svc.orch.CheckFreshness(context.Background(), types.Slugify(args[0]), ttlDays)
	if err != nil {
		return err
	}

	fmt.Printf("Cache status:    %s\n", f.CacheStatus)
	if !f.LastResearched.IsZero() {
		fmt.Printf("Last researched: %s\n", f.LastResearched.Format("2006-01-02 15:04"))
	}
	if f.NeedsUpdate {
		fmt.Println("Needs update:    yes")
	} else {
		fmt.Println("Needs update:    no")
	}
	return nil
}
