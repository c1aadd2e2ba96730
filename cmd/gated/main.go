package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bidwire/gate/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "gated <command>",
	Short: "Message routing and permission gate for the bid marketplace",
	Long: `gated sits between homeowner and contractor agents. Every message is
checked against the project's bid state before delivery: accepted bids talk
freely, pending bids get contact info redacted, and everything else is
blocked or pseudonymized per policy.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(directoryCmd)
}

func main() {
	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
