package cli

import (
	"fmt"
	"strings"

	"github.com/RichardoC/bankchat/internal/llm"
	"github.com/spf13/cobra"
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant one question without logging in",
		Long: `Ask sends a single question to the configured reply strategy and prints
the answer. Nothing is stored. It is a quick way to check that a model
server is reachable.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			oracle, err := llm.New(cfg.Oracle, cfg.Bank.Knowledge, logger)
			if err != nil {
				return err
			}

			reply := oracle.Respond(cmd.Context(), strings.Join(args, " "), nil)
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}
