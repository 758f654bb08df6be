// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the topicsmith CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/topicsmith/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the topicsmith CLI.
var rootCmd = &cobra.Command{
	Use:   "topicsmith",
	Short: "Iterative topic research and content synthesis",
	Long: `topicsmith researches a topic through real search engines, synthesizes
the findings into progressively structured learning content, and recursively
expands the topic into a researched subtopic hierarchy.

Research results are cached, persisted to a local SQLite database, and
observable through progress polling while subtopic research continues in
the background.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./topicsmith.yaml or ~/.config/topicsmith/config.yaml)")
	rootCmd.PersistentFlags().String("env", "prod", "environment: prod, dev, local")
	rootCmd.PersistentFlags().String("log-level", "", "log level override: debug, info, warn, error")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("topicsmith")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "topicsmith"))
		}
	}

	viper.SetEnvPrefix("TOPICSMITH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
