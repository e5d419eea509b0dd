// Package main provides the entry point for the WebSentry CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for WebSentry.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "websentry",
		Short: "Content screening for web pages consumed by automated agents",
		Long: `WebSentry screens web pages before their content reaches an automated agent.
It detects prompt-injection payloads, dangerous scripts, hidden elements, and
forced redirects, produces a sanitized copy of the markup, and reports a
risk-scored verdict.

By default, pages are rendered with headless Chrome so the screener sees
post-JavaScript markup. Use --no-browser for plain HTTP fetching.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScreenCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
