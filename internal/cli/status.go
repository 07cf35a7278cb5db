package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sign-in state and scan capabilities",
	RunE:  runStatus,
}

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show remaining scan quota",
	RunE:  runQuota,
}

var statsCmd = &cobra.Command{
	Use:   "stats <url>",
	Short: "Show public scan statistics for a URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(statsCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !a.session.CheckStatus(ctx) {
		fmt.Println("Not signed in. Run `siteprobe login` first.")
		return nil
	}

	user := a.session.CurrentUser()
	status, err := a.scanClient().UserStatus(ctx)
	if err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(map[string]any{"user": user, "scan": status})
	}

	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Paid user:       %v\n", status.Status.IsPaidUser)
	fmt.Printf("Can basic scan:  %v\n", status.Status.CanBasicScan)
	fmt.Printf("Can deep scan:   %v\n", status.Status.CanDeepScan)
	fmt.Printf("Total scans:     %d basic, %d deep\n",
		status.Stats.TotalBasicScans, status.Stats.TotalDeepScans)
	return nil
}

func runQuota(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quota, err := a.scanClient().Quota(ctx)
	if err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(quota)
	}

	fmt.Printf("Free scans remaining:  %d\n", quota.FreeScansRemaining)
	fmt.Printf("Basic scans remaining: %d\n", quota.BasicScansRemaining)
	fmt.Printf("Deep scans remaining:  %d\n", quota.DeepScansRemaining)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := a.scanClient().URLStats(ctx, args[0])
	if err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(stats)
	}

	fmt.Printf("Total scans:     %d\n", stats.TotalScans)
	if stats.LastRiskLevel != "" {
		fmt.Printf("Last risk level: %s\n", stats.LastRiskLevel)
	}
	if stats.LastScanAt != "" {
		fmt.Printf("Last scanned:    %s\n", stats.LastScanAt)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
