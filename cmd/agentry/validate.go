package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentry-dev/agentry"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow-file>",
	Short: "Check a workflow graph for consistency",
	Long: `Parses a workflow file and reports structural problems: a missing entry
node or invalid delegation wiring such as cycles or shared subagents.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Workflow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	graph, err := agentry.ParseWorkflow(data)
	if err != nil {
		return err
	}
	return agentry.ValidateWorkflow(graph)
}
