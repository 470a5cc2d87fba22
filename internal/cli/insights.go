package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show spending trends, recurring merchants and suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		engine := e.newInsights()
		now := time.Now()

		changes, err := engine.MonthOverMonth(ctx)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			fmt.Println("month over month (debits):")
			for _, c := range changes {
				fmt.Printf("  %s  %.2f (%+.1f%%)\n", c.Month, c.Total, c.ChangePercent)
			}
		}

		trends, err := engine.CategoryTrend(ctx, now)
		if err != nil {
			return err
		}
		if len(trends) > 0 {
			fmt.Println("category trend (vs last month):")
			for _, t := range trends {
				fmt.Printf("  %-15s %.2f (%+.1f%%)\n", t.Category, t.CurrentTotal, t.ChangePercent)
			}
		}

		recurring, err := engine.RecurringMerchants(ctx)
		if err != nil {
			return err
		}
		if len(recurring) > 0 {
			fmt.Println("recurring merchants:")
			for _, m := range recurring {
				fmt.Printf("  %-30s %dx  total %.2f  avg %.2f  %s\n",
					m.Merchant, m.Count, m.Total, m.Average, m.Frequency)
			}
		}

		suggestions, err := engine.Suggestions(ctx, now)
		if err != nil {
			return err
		}
		for _, s := range suggestions {
			fmt.Printf("suggestion: %s\n", s.Message)
		}
		return nil
	},
}
