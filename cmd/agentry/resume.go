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

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:   "resume <run-id> <approve|reject>",
	Short: "Resume a suspended run with an approval decision",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		storePath, _ := cmd.Flags().GetString("store")
		note, _ := cmd.Flags().GetString("note")

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

		if err := cli.ResumeSession(ctx, storePath, args[0], args[1], note, responder); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().String("note", "", "Note recorded alongside the decision")
}
