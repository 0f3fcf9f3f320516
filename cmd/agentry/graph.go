package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentry-dev/agentry"
	"github.com/agentry-dev/agentry/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <workflow-file>",
	Short: "Export the workflow graph visualization",
	Long:  `Parses a workflow file and outputs a Mermaid diagram (graph TD) of its execution and delegation edges.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Printf("Error reading workflow: %v\n", err)
			os.Exit(1)
		}
		g, err := agentry.ParseWorkflow(data)
		if err != nil {
			fmt.Printf("Error parsing workflow: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(g, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
