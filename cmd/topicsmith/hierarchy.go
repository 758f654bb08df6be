// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topicsmith/internal/store"
	"github.com/pdiddy/topicsmith/pkg/types"
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy [topic]",
	Short: "Show the researched subtopic tree below a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runHierarchy,
}

var expandCmd = &cobra.Command{
	Use:   "expand [topic]",
	Short: "Research the unexpanded frontier below a topic to a target depth",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpand,
}

func init() {
	hierarchyCmd.Flags().Int("depth", 3, "maximum hierarchy depth to show")
	hierarchyCmd.Flags().String("format", formatText, "output format: text, json, or yaml")

	expandCmd.Flags().Int("depth", 2, "target hierarchy depth")
	expandCmd.Flags().String("context", "", "free-text context about the research goal")

	rootCmd.AddCommand(hierarchyCmd)
	rootCmd.AddCommand(expandCmd)
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	svc, err := buildService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	depth, _ := cmd.Flags().GetInt("depth")
	node, err := svc.orch.GetHierarchy(context.Background(), types.Slugify(args[0]), depth)
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != formatText {
		return writeStructured(os.Stdout, node, format)
	}

	printNode(node, 0)
	return nil
}

func printNode(node store.TopicNode, indent int) {
	fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", indent), node.Title, node.Status)
	for _, child := range node.Children {
		printNode(child, indent+1)
	}
}

func runExpand(cmd *cobra.Command, args []string) error {
	svc, err := buildService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	depth, _ := cmd.Flags().GetInt("depth")
	userContext, _ := cmd.Flags().GetString("context")

	result, err := svc.orch.ExpandDepth(context.Background(), types.Slugify(args[0]), depth, userContext)
	if err != nil {
		return err
	}

	if len(result.Researched) == 0 {
		fmt.Printf("%s already expanded to depth %d\n", result.TopicSlug, result.TargetDepth)
		return nil
	}
	fmt.Printf("Researched %d topics:\n", len(result.Researched))
	for _, slug := range result.Researched {
		fmt.Printf("  - %s\n", slug)
	}
	return nil
}
