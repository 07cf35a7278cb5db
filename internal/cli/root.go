// Package cli wires the cobra command tree over the backend clients.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "siteprobe",
	Short: "Website security scanner CLI",
	Long: `siteprobe - website security scanner

Submits URLs to the scanning backend, follows scan progress, and manages
your account: Google sign-in, scan quota, history, and scan-package orders.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Connection flags
	rootCmd.PersistentFlags().String("api-url", "", "Backend API base URL (default: https://api.siteprobe.dev or SITEPROBE_API_URL env)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory for credentials, settings and history (default: ~/.siteprobe)")
	rootCmd.PersistentFlags().String("token-file", "", "Credentials file path (default: <data-dir>/credentials.json)")

	// Output flags
	rootCmd.PersistentFlags().IntP("verbose", "v", 0, "Verbosity level (0-2)")
	rootCmd.PersistentFlags().Bool("json", false, "Print machine-readable JSON output")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("siteprobe %s (commit: %s, built: %s)\n", version, commit, date)
	},
}
