// Package cli defines the bankchat commands.
package cli

import (
	"fmt"

	"github.com/RichardoC/bankchat/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev" // set via ldflags at build time

// rootOptions are the persistent flags shared by every command. Non-empty
// values override the config file.
type rootOptions struct {
	configPath string
	dbPath     string
	addr       string
	oracle     string
	model      string
	baseURL    string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "bankchat",
		Short: "Banking assistant chatbot",
		Long: `bankchat lets registered users chat with a banking assistant, keep
their conversations, and look at their balance, loan status, recent
transactions and ATM details.`,
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	flags.StringVar(&opts.dbPath, "db", "", "SQLite database path")
	flags.StringVar(&opts.addr, "addr", "", "HTTP listen address")
	flags.StringVar(&opts.oracle, "oracle", "", "reply strategy: keyword, ollama or openai")
	flags.StringVar(&opts.model, "model", "", "model name for the ollama and openai strategies")
	flags.StringVar(&opts.baseURL, "base-url", "", "model server URL")

	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newChatCommand(opts))
	rootCmd.AddCommand(newAskCommand(opts))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

// config loads the config file, if any, and applies the flag overrides.
func (o *rootOptions) config() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.dbPath != "" {
		cfg.Database.Path = o.dbPath
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.oracle != "" {
		cfg.Oracle.Strategy = o.oracle
	}
	if o.model != "" {
		cfg.Oracle.Model = o.model
	}
	if o.baseURL != "" {
		cfg.Oracle.BaseURL = o.baseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
