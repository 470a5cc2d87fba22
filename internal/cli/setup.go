package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initialize the data directory and authorize mail access",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := os.MkdirAll(e.cfg.BaseDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", e.cfg.BaseDir, err)
		}
		fmt.Printf("data directory: %s\n", e.cfg.BaseDir)
		fmt.Printf("database:       %s\n", e.cfg.DBPath())

		if _, err := os.Stat(e.cfg.CredentialsPath()); err != nil {
			return fmt.Errorf("place your mail-provider OAuth client file at %s and re-run setup", e.cfg.CredentialsPath())
		}

		// Run the OAuth flow now so sync does not have to.
		if _, err := e.newIngestor(ctx); err != nil {
			return err
		}
		fmt.Println("mail access authorized")

		if e.llm.Available(ctx) {
			fmt.Printf("model binary %q available\n", e.cfg.LLM.Binary)
		} else {
			fmt.Printf("warning: model binary %q not responding; AI features will degrade\n", e.cfg.LLM.Binary)
		}
		return nil
	},
}
