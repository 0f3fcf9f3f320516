package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentry-dev/agentry/internal/cli"
	"github.com/agentry-dev/agentry/internal/config"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <workflow-file>",
	Short: "Execute a workflow graph",
	Long: `Executes a workflow graph from a JSON or YAML file. Approval checkpoints
are answered interactively; in headless or JSON mode the run is persisted so
it can be resumed later.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		storePath, _ := cmd.Flags().GetString("store")
		input, _ := cmd.Flags().GetString("input")
		runID, _ := cmd.Flags().GetString("run-id")
		headless, _ := cmd.Flags().GetBool("headless")
		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		responder, err := newResponder(cfg.Provider)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = cli.RunSession(ctx, cli.RunOptions{
			WorkflowPath: args[0],
			Input:        input,
			RunID:        runID,
			StorePath:    storePath,
			Headless:     headless,
			JSON:         jsonMode,
			Debug:        debug,
			Responder:    responder,
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "Initial input for the entry node")
	runCmd.Flags().String("run-id", "", "Use a fixed run id instead of a generated one")
	runCmd.Flags().Bool("headless", false, "Do not prompt for approvals; persist and exit on suspension")
	runCmd.Flags().Bool("json", false, "Emit log entries and the result as NDJSON")
	runCmd.Flags().Bool("debug", false, "Enable debug logging")
}
