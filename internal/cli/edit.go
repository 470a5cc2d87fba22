package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chandrameenamohan/expense-tracker/pkg/models"
)

var recategorizeCmd = &cobra.Command{
	Use:   "recategorize <id> <category>",
	Short: "Override a transaction's category (the model learns from it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := e.resolveTransactionID(ctx, args[0])
		if err != nil {
			return err
		}
		if err := e.newReviewQueue().Recategorize(ctx, id, args[1]); err != nil {
			return err
		}
		fmt.Printf("transaction %s recategorized to %s\n", shortID(id), args[1])
		return nil
	},
}

var remerchantCmd = &cobra.Command{
	Use:   "remerchant <id> <name>",
	Short: "Override a transaction's merchant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := e.resolveTransactionID(ctx, args[0])
		if err != nil {
			return err
		}
		if err := e.db.UpdateTransactionMerchant(ctx, id, args[1]); err != nil {
			return err
		}
		fmt.Printf("transaction %s merchant set to %s\n", shortID(id), args[1])
		return nil
	},
}

var flagNotes string

var flagCmd = &cobra.Command{
	Use:   "flag <id> correct|wrong",
	Short: "Record a ground-truth verdict on an extracted transaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := e.resolveTransactionID(ctx, args[0])
		if err != nil {
			return err
		}
		verdict := models.EvalVerdict(args[1])
		if !verdict.Valid() {
			return fmt.Errorf("verdict must be correct or wrong, got %q", args[1])
		}
		if err := e.db.InsertEvalFlag(ctx, id, verdict, flagNotes); err != nil {
			return err
		}
		fmt.Printf("transaction %s flagged %s\n", shortID(id), verdict)
		return nil
	},
}

func init() {
	flagCmd.Flags().StringVar(&flagNotes, "notes", "", "optional notes")
}
