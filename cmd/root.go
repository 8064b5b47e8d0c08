// Package cmd implements the clawdbot CLI.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagConfigPath string

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clawdbot",
		Short: "Clawdbot chat gateway with a text-to-speech reply pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGateway(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default ~/.clawdbot/config.json5)")

	cmd.AddCommand(ttsCmd())
	cmd.AddCommand(configCmd())
	cmd.AddCommand(onboardCmd())
	cmd.AddCommand(doctorCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
