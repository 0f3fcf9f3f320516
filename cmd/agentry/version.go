package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentry-dev/agentry"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of agentry",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentry version %s\n", strings.TrimSpace(agentry.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
