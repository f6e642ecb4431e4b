// Rrcmon monitors the RRC measurements of UEs on an EmPOWER controller.
//
// It polls the controller's REST API and shows, for a chosen VBSP and UE,
// the RSRP and RSRQ of the serving cell and of one neighbour cell. The
// interactive dashboard is the default; watch runs headless and can serve
// a websocket feed and record samples to PostgreSQL.
//
// Usage:
//
//	rrcmon [command] [flags]
//
// Running without arguments launches the dashboard.
// See 'rrcmon --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/rrcmon/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rrcmon",
	Short: "EmPOWER RRC Measurement Monitor",
	Long: `A terminal monitor for the RRC measurements reported by UEs attached
to an EmPOWER controller.

Pick a VBSP, a UE and optionally a neighbour cell, and watch the RSRP and
RSRQ gauges update live.

If no command is specified, the interactive dashboard will launch automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the dashboard when no subcommand provided
		return runDashboard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rrcmon %s\n", version.Full())
	},
}
