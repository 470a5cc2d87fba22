package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Adjudicate low-confidence transactions interactively",
	Long:  "Walks the review queue. For each transaction: a = accept, c <category> = recategorize, s = skip, q = quit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		queue := e.newReviewQueue()
		txns, err := queue.List(ctx, "")
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			fmt.Println("review queue is empty")
			return nil
		}
		fmt.Printf("%d transaction(s) to review\n\n", len(txns))

		reader := bufio.NewReader(os.Stdin)
		for i, t := range txns {
			conf := "-"
			if t.Confidence != nil {
				conf = fmt.Sprintf("%.2f", *t.Confidence)
			}
			fmt.Printf("[%d/%d] %s  %.2f %s %s  %s  category=%s  confidence=%s\n",
				i+1, len(txns), t.Date.Format("2006-01-02"), t.Amount, t.Currency,
				t.Direction, t.Merchant, t.Category, conf)
			fmt.Print("a(ccept) / c <category> / s(kip) / q(uit): ")

			line, err := reader.ReadString('\n')
			if err != nil {
				return nil
			}
			line = strings.TrimSpace(line)

			switch {
			case line == "a":
				if err := queue.Accept(ctx, t.ID); err != nil {
					return err
				}
			case strings.HasPrefix(line, "c "):
				category := strings.TrimSpace(strings.TrimPrefix(line, "c "))
				if category == "" {
					fmt.Println("missing category, skipping")
					continue
				}
				if err := queue.Recategorize(ctx, t.ID, category); err != nil {
					return err
				}
			case line == "q":
				return nil
			default:
				// skip
			}
		}
		return nil
	},
}
