// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topicsmith/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [topic]",
	Short: "Show a topic's persisted state and live research progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("format", formatText, "output format: text, json, or yaml")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := buildService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.orch.GetStats(context.Background(), types.Slugify(args[0]))
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != formatText {
		return writeStructured(os.Stdout, stats, format)
	}

	fmt.Printf("Topic:          %s\n", stats.Topic.Title)
	fmt.Printf("Status:         %s\n", stats.Topic.Status)
	fmt.Printf("Depth:          %d\n", stats.Topic.Depth)
	fmt.Printf("Subtopics:      %d\n", stats.SubtopicCount)
	fmt.Printf("Last research:  %s\n", stats.Topic.LastResearched.Format("2006-01-02 15:04"))
	if stats.HasContent {
		fmt.Printf("Content:        %d sections from %d sources\n", stats.SectionCount, stats.SourceCount)
	}

	if stats.LiveProgress != nil {
		live := stats.LiveProgress
		fmt.Printf("\nLive progress:  %d%% (%s)\n", live.OverallProgress, live.Status)
		for _, sub := range live.SubtopicsProgress {
			fmt.Printf("  %-40s  %-10s  %3d%%\n", truncate(sub.Title, 40), sub.Status, sub.Progress)
		}
		if live.Error != "" {
			fmt.Printf("Error:          %s\n", live.Error)
		}
	}
	return nil
}
