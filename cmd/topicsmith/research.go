// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topicsmith/internal/orchestrator"
	"github.com/pdiddy/topicsmith/pkg/types"
)

// pollInterval paces progress polling while subtopics research in
// the background.
const pollInterval = 2 * time.Second

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a topic and generate learning content",
	Long: `Research plans diversified search queries for a topic, executes them
concurrently across the configured engines, synthesizes the findings, and
generates progressively structured learning content.

The main-topic result prints as soon as it is ready. Subtopic research
continues in the background; use --wait to poll progress until the whole
hierarchy finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("level", types.DefaultUserLevel, "audience level (e.g. general, beginner, expert)")
	researchCmd.Flags().String("context", "", "free-text context about the research goal")
	researchCmd.Flags().Bool("force", false, "bypass cached and persisted results")
	researchCmd.Flags().Bool("no-subtopics", false, "skip background subtopic research")
	researchCmd.Flags().Bool("wait", false, "poll progress until subtopic research completes")
	researchCmd.Flags().String("format", formatText, "output format: text, json, or yaml")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	svc, err := buildService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	level, _ := cmd.Flags().GetString("level")
	userContext, _ := cmd.Flags().GetString("context")
	force, _ := cmd.Flags().GetBool("force")
	noSubtopics, _ := cmd.Flags().GetBool("no-subtopics")

	topic := args[0]
	result, err := svc.orch.StartResearch(context.Background(), topic, orchestrator.Options{
		UserLevel:     level,
		UserContext:   userContext,
		ForceRefresh:  force,
		SkipSubtopics: noSubtopics,
	})
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != formatText {
		if err := writeStructured(os.Stdout, result, format); err != nil {
			return err
		}
	} else {
		printResult(result)
	}

	if wait, _ := cmd.Flags().GetBool("wait"); wait && !noSubtopics {
		pollProgress(svc, types.Slugify(topic))
	}
	return nil
}

func printResult(result types.TopicResearchResult) {
	fmt.Printf("# %s (%dm read)\n\n", result.Content.Title, result.Content.EstimatedReadMinutes)

	fmt.Fprintf(os.Stdout, "%-40s  %-12s  %s\n", "Section", "Complexity", "Objective")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, section := range result.Content.Sections {
		fmt.Fprintf(os.Stdout, "%-40s  %-12s  %s\n",
			truncate(section.Title, 40), section.ComplexityTier, truncate(section.LearningObjective, 44))
	}

	fmt.Println("\nKey takeaways:")
	for _, takeaway := range result.Content.KeyTakeaways {
		fmt.Printf("  - %s\n", takeaway)
	}

	fmt.Println("\nNext steps:")
	for _, step := range result.Content.NextSteps {
		fmt.Printf("  - %s\n", step)
	}

	if len(result.Subtopics) > 0 {
		fmt.Println("\nSubtopics:")
		for _, sub := range result.Subtopics {
			fmt.Printf("  %d. %s (%s)\n", sub.Priority, sub.Title, sub.ComplexityLevel)
		}
	}

	fmt.Printf("\nSources: %d  Engines: %s  Confidence: %.2f\n",
		result.Metadata.TotalSources,
		strings.Join(result.Metadata.EnginesUsed, ", "),
		result.Metadata.ConfidenceScore,
	)
}

// pollProgress prints progress updates until the topic job reaches a
// terminal state or its entry expires.
func pollProgress(svc *service, slug string) {
	for {
		data, ok := svc.tracker.Get(slug)
		if !ok {
			return
		}
		fmt.Fprintf(os.Stderr, "progress: %3d%%  %s  %s\n",
			data.OverallProgress, data.Status, data.StepDetails)
		if data.Status == types.StatusCompleted || data.Status == types.StatusError {
			return
		}
		time.Sleep(pollInterval)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
