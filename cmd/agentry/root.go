package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentry",
	Short: "Agentry executes agent workflow graphs",
	Long: `Agentry runs workflow graphs of LLM agents, conditions, and approval
checkpoints, suspending on approvals and resuming from persisted state.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "agentry.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().String("store", ".agentry/runs", "Directory for persisted run state")
}
