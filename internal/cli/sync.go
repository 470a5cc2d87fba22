package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chandrameenamohan/expense-tracker/internal/app"
	"github.com/chandrameenamohan/expense-tracker/internal/gmail"
)

var (
	syncSince          string
	syncSkipCategorize bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch new notification emails and extract transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		opts := app.SyncOptions{SkipCategorize: syncSkipCategorize}
		if syncSince != "" {
			since, err := time.Parse("2006-01-02", syncSince)
			if err != nil {
				return fmt.Errorf("invalid --since (want YYYY-MM-DD): %w", err)
			}
			opts.Since = since
		}

		if !e.warnIfModelMissing(ctx) {
			opts.SkipCategorize = true
		}

		a, err := e.newApp(ctx, true)
		if err != nil {
			return err
		}

		summary, err := a.Sync(ctx, opts)
		if gmail.IsAuthRevoked(err) {
			// The provider no longer accepts the cached token: drop it,
			// re-run the interactive flow, and resume.
			fmt.Println("mail authorization was revoked, re-authorizing")
			if err := e.dropToken(); err != nil {
				return err
			}
			if a, err = e.newApp(ctx, true); err != nil {
				return err
			}
			summary, err = a.Sync(ctx, opts)
		}
		if err != nil {
			return err
		}

		fmt.Printf("messages found:     %d\n", summary.MessagesFound)
		fmt.Printf("new emails stored:  %d\n", summary.NewEmails)
		fmt.Printf("transactions added: %d\n", summary.TransactionsAdded)
		fmt.Printf("duplicates found:   %d\n", summary.DuplicatesFound)
		for _, alert := range summary.Alerts {
			fmt.Printf("alert [%s]: %s\n", alert.Type, alert.Message)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSince, "since", "", "sync emails after this date (YYYY-MM-DD)")
	syncCmd.Flags().BoolVar(&syncSkipCategorize, "skip-categorize", false, "skip AI categorization")
}
