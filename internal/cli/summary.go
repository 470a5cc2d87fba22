package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

var summaryFlags struct {
	from      string
	to        string
	direction string
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show totals per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		filter := database.TransactionFilter{
			Direction: models.Direction(summaryFlags.direction),
		}
		if summaryFlags.from != "" {
			t, err := time.Parse("2006-01-02", summaryFlags.from)
			if err != nil {
				return fmt.Errorf("invalid --from (want YYYY-MM-DD): %w", err)
			}
			filter.From = t
		}
		if summaryFlags.to != "" {
			t, err := time.Parse("2006-01-02", summaryFlags.to)
			if err != nil {
				return fmt.Errorf("invalid --to (want YYYY-MM-DD): %w", err)
			}
			filter.To = t.AddDate(0, 0, 1)
		}
		if filter.Direction == "" {
			filter.Direction = models.DirectionDebit
		}

		txns, err := e.db.ListTransactions(ctx, filter)
		if err != nil {
			return err
		}

		totals := map[string]float64{}
		counts := map[string]int{}
		var grand float64
		for _, t := range txns {
			cat := t.Category
			if cat == "" {
				cat = "(uncategorized)"
			}
			totals[cat] += t.Amount
			counts[cat]++
			grand += t.Amount
		}

		categories := make([]string, 0, len(totals))
		for cat := range totals {
			categories = append(categories, cat)
		}
		sort.Slice(categories, func(i, j int) bool {
			return totals[categories[i]] > totals[categories[j]]
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tCOUNT\tTOTAL")
		for _, cat := range categories {
			fmt.Fprintf(w, "%s\t%d\t%.2f\n", cat, counts[cat], totals[cat])
		}
		fmt.Fprintf(w, "TOTAL\t%d\t%.2f\n", len(txns), grand)
		w.Flush()
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryFlags.from, "from", "", "start date (YYYY-MM-DD)")
	summaryCmd.Flags().StringVar(&summaryFlags.to, "to", "", "end date (YYYY-MM-DD)")
	summaryCmd.Flags().StringVar(&summaryFlags.direction, "direction", "", "debit or credit (default debit)")
}
