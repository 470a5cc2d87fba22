package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask questions about your spending in plain language",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if !e.llm.Available(ctx) {
			return fmt.Errorf("model binary %q unavailable; chat needs it", e.cfg.LLM.Binary)
		}
		engine := e.newQueryEngine()

		if len(args) == 1 {
			resp := engine.Ask(ctx, args[0])
			fmt.Println(resp.Answer)
			return nil
		}

		fmt.Println("ask about your spending (empty line or 'quit' to exit)")
		reader := bufio.NewReader(os.Stdin)
		for {
			fmt.Print("> ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return nil
			}
			question := strings.TrimSpace(line)
			if question == "" || question == "quit" || question == "exit" {
				return nil
			}
			resp := engine.Ask(ctx, question)
			fmt.Println(resp.Answer)
		}
	},
}
