package cli

import (
	"bufio"
	"os"

	"github.com/RichardoC/bankchat/internal/session"
	"github.com/spf13/cobra"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			r := &repl{
				session: session.New(a.deps),
				scanner: bufio.NewScanner(os.Stdin),
				logger:  logger,
			}
			r.run(cmd.Context())
			return a.Close()
		},
	}
}
