package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chandrameenamohan/expense-tracker/internal/app"
)

var reparseFlags struct {
	missing        bool
	skipCategorize bool
}

var reparseCmd = &cobra.Command{
	Use:   "reparse",
	Short: "Re-run the extraction pipeline over stored emails",
	Long:  "Re-parses raw emails already in the store. The composite transaction key makes this non-destructive: existing rows are kept, only new extractions are added.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		skip := reparseFlags.skipCategorize
		if !e.warnIfModelMissing(ctx) {
			skip = true
		}

		a, err := e.newApp(ctx, false)
		if err != nil {
			return err
		}
		added, err := a.Reparse(ctx, app.ReparseOptions{
			MissingOnly:    reparseFlags.missing,
			SkipCategorize: skip,
		})
		if err != nil {
			return err
		}
		fmt.Printf("transactions added: %d\n", added)
		return nil
	},
}

func init() {
	reparseCmd.Flags().BoolVar(&reparseFlags.missing, "missing", false, "only emails that produced no transactions")
	reparseCmd.Flags().BoolVar(&reparseFlags.skipCategorize, "skip-categorize", false, "skip AI categorization")
}
