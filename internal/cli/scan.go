package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/siteprobe/siteprobe-cli/internal/api"
	"github.com/siteprobe/siteprobe-cli/internal/history"
	"github.com/siteprobe/siteprobe-cli/internal/scan"
	"github.com/siteprobe/siteprobe-cli/internal/tui"
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan a website and follow progress until the result is ready",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("type", "t", "", "Scan type: basic or deep (default from settings)")
	scanCmd.Flags().Int("max-attempts", 0, "Maximum status fetches before giving up (default 60)")
	scanCmd.Flags().Bool("no-history", false, "Do not record this scan in the local history cache")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	target := args[0]
	scanType, _ := cmd.Flags().GetString("type")
	if scanType == "" {
		scanType = a.settings.DefaultScanType
	}
	if scanType != string(scan.TypeBasic) && scanType != string(scan.TypeDeep) {
		return fmt.Errorf("invalid scan type %q (want basic or deep)", scanType)
	}
	maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	if isTTY() && !a.jsonOut {
		// Run TUI program on stderr so stdout pipes are not corrupted
		m := tui.NewModel()
		// WithInput(nil): disable stdin/keyboard input so BubbleTea skips terminal
		// capability queries. Ctrl+C is handled by signal.NotifyContext.
		p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
		}()

		d := tui.NewProgramDisplayer(p)
		runErr := a.runScanFlow(d, target, scan.Type(scanType), maxAttempts, noHistory)
		p.Quit() // let BubbleTea drain terminal query responses before exiting
		wg.Wait()
		return runErr
	}

	d := tui.NewPlainDisplayer(os.Stderr)
	return a.runScanFlow(d, target, scan.Type(scanType), maxAttempts, noHistory)
}

func (a *app) runScanFlow(d tui.Displayer, target string, scanType scan.Type, maxAttempts int, noHistory bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.Banner()
	if user := a.session.CurrentUser(); user != nil {
		d.SessionFound(user.Email)
	} else {
		d.SessionMissing()
	}

	sc := a.scanClient()

	task, err := sc.CreateTask(ctx, target, scanType)
	if err != nil {
		d.Fatal(err)
		return err
	}
	d.ScanCreated(task)

	opts := scan.PollOptions{MaxAttempts: maxAttempts}
	attempt := 0
	delay := time.Second
	opts.OnProgress = func(snapshot *scan.Task) {
		attempt++
		d.ScanSnapshot(snapshot, attempt)
		// Mirror the poller's delay schedule so interval changes are visible.
		if snapshot.Status == scan.StatusScanning {
			next := min(delay+time.Second, 4*time.Second)
			if next != delay {
				delay = next
				d.PollDelay(delay)
			}
		} else {
			delay = time.Second
		}
	}

	final, err := sc.Poll(ctx, task.TaskID, opts)
	if err != nil {
		d.Fatal(err)
		return err
	}

	if final.Status == scan.StatusCompleted {
		d.ScanCompleted(final)
	} else {
		d.ScanFailed(final)
	}

	if a.settings.SaveHistory && !noHistory {
		a.recordScan(ctx, final)
	}

	if a.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(final); err != nil {
			return err
		}
	}

	if final.Status == scan.StatusFailed {
		return &api.Error{Kind: api.KindServer, Message: "scan failed"}
	}
	return nil
}

// recordScan appends the outcome to the local history cache. Best effort:
// a cache failure never fails the scan itself.
func (a *app) recordScan(ctx context.Context, task *scan.Task) {
	store, err := a.historyStore()
	if err != nil {
		a.log.Warn(ctx, "history cache unavailable", "error", err)
		return
	}
	defer store.Close()

	rec := &history.Record{
		TaskID:    task.TaskID,
		URL:       task.URL,
		ScanType:  string(task.ScanType),
		Status:    string(task.Status),
		RiskLevel: task.RiskLevel,
		RiskScore: task.RiskScore,
	}
	if err := store.Add(ctx, rec); err != nil {
		a.log.Warn(ctx, "failed to record scan in history cache", "error", err)
	}
}
