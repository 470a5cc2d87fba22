package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chandrameenamohan/expense-tracker/internal/database"
	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

var listFlags struct {
	from      string
	to        string
	txType    string
	category  string
	direction string
	bank      string
	limit     int
	offset    int
	review    bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		filter, err := buildFilter()
		if err != nil {
			return err
		}

		txns, err := e.db.ListTransactions(ctx, filter)
		if err != nil {
			return err
		}

		printTransactions(txns)
		return nil
	},
}

func buildFilter() (database.TransactionFilter, error) {
	f := database.TransactionFilter{
		Type:      models.TxType(listFlags.txType),
		Category:  listFlags.category,
		Direction: models.Direction(listFlags.direction),
		Bank:      listFlags.bank,
		Limit:     listFlags.limit,
		Offset:    listFlags.offset,
	}
	if listFlags.from != "" {
		t, err := time.Parse("2006-01-02", listFlags.from)
		if err != nil {
			return f, fmt.Errorf("invalid --from (want YYYY-MM-DD): %w", err)
		}
		f.From = t
	}
	if listFlags.to != "" {
		t, err := time.Parse("2006-01-02", listFlags.to)
		if err != nil {
			return f, fmt.Errorf("invalid --to (want YYYY-MM-DD): %w", err)
		}
		f.To = t.AddDate(0, 0, 1) // inclusive end date
	}
	if listFlags.review {
		yes := true
		f.NeedsReview = &yes
	}
	return f, nil
}

func printTransactions(txns []models.Transaction) {
	if len(txns) == 0 {
		fmt.Println("no transactions")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tAMOUNT\tDIR\tTYPE\tMERCHANT\tCATEGORY\tBANK\tREVIEW")
	for _, t := range txns {
		review := ""
		if t.NeedsReview {
			review = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Date.Format("2006-01-02"), t.Amount, t.Currency,
			t.Direction, t.Type, t.Merchant, t.Category, t.Bank, review)
	}
	w.Flush()
}

func init() {
	listCmd.Flags().StringVar(&listFlags.from, "from", "", "start date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listFlags.to, "to", "", "end date (YYYY-MM-DD)")
	listCmd.Flags().StringVar(&listFlags.txType, "type", "", "transaction type filter")
	listCmd.Flags().StringVar(&listFlags.category, "category", "", "category filter")
	listCmd.Flags().StringVar(&listFlags.direction, "direction", "", "debit or credit")
	listCmd.Flags().StringVar(&listFlags.bank, "bank", "", "bank filter")
	listCmd.Flags().IntVar(&listFlags.limit, "limit", 50, "max rows")
	listCmd.Flags().IntVar(&listFlags.offset, "offset", 0, "rows to skip")
	listCmd.Flags().BoolVar(&listFlags.review, "review", false, "only rows needing review")
}

// shortID keeps listings readable; full ids still work everywhere ids are
// accepted.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
