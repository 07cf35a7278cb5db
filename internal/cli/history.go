package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scans (local cache by default)",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Bool("remote", false, "Fetch history from the backend instead of the local cache")
	historyCmd.Flags().Int("limit", 20, "Maximum entries to show")
	historyCmd.Flags().Int("offset", 0, "Entries to skip (paging)")
	historyCmd.Flags().Bool("clear", false, "Clear the local history cache")
	historyCmd.Flags().String("delete", "", "Delete one local history entry by ID")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	remote, _ := cmd.Flags().GetBool("remote")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	clear, _ := cmd.Flags().GetBool("clear")
	deleteID, _ := cmd.Flags().GetString("delete")

	if remote {
		return a.showRemoteHistory(ctx, limit, offset)
	}

	store, err := a.historyStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if clear {
		if err := store.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Local history cleared.")
		return nil
	}

	if deleteID != "" {
		if err := store.Delete(ctx, deleteID); err != nil {
			return err
		}
		fmt.Println("Entry deleted.")
		return nil
	}

	records, err := store.List(ctx, limit, offset)
	if err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(records)
	}

	if len(records) == 0 {
		fmt.Println("No local scan history.")
		return nil
	}
	for _, rec := range records {
		risk := rec.RiskLevel
		if risk == "" {
			risk = "-"
		}
		fmt.Printf("%s  %-9s  %-8s  %s  (%s)\n",
			rec.CreatedAt.Format("2006-01-02 15:04"), rec.Status, risk, rec.URL, rec.ID)
	}
	return nil
}

func (a *app) showRemoteHistory(ctx context.Context, limit, offset int) error {
	page, err := a.scanClient().History(ctx, limit, offset)
	if err != nil {
		return err
	}

	if a.jsonOut {
		return printJSON(page)
	}

	if len(page.Records) == 0 {
		fmt.Println("No scans on record.")
		return nil
	}
	for _, task := range page.Records {
		risk := task.RiskLevel
		if risk == "" {
			risk = "-"
		}
		fmt.Printf("%-9s  %-8s  %s\n", task.Status, risk, task.URL)
	}
	if page.Pagination.HasMore {
		fmt.Fprintf(os.Stderr, "More results available: --offset %d\n", offset+limit)
	}
	return nil
}
