package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8100", cfg.Server.Addr)
	assert.Equal(t, "bank_chatbot.db", cfg.Database.Path)
	assert.Equal(t, StrategyKeyword, cfg.Oracle.Strategy)
	assert.Zero(t, cfg.Oracle.Timeout)
	assert.Equal(t, "1500.75", cfg.StartingBalance().StringFixed(2))
	assert.Equal(t, "500", cfg.Branch().DailyATMLimit.String())
	assert.Equal(t, "123 Main St, Financial District", cfg.Branch().ATMLocation)
}

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Oracle.Strategy = StrategyOllama
	cfg.Oracle.Model = "gemma3:4b"
	cfg.Oracle.Timeout = 45 * time.Second
	cfg.Bank.StartingBalance = "250.00"

	path := filepath.Join(t.TempDir(), "bankchat.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("oracle:\n  strategy: openai\n  base_url: http://localhost:11434/v1/\n  timeout: 30s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StrategyOpenAI, cfg.Oracle.Strategy)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	assert.Equal(t, "llama3", cfg.Oracle.Model)
	assert.Equal(t, ":8100", cfg.Server.Addr)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown strategy", func(c *Config) { c.Oracle.Strategy = "magic" }, "oracle.strategy"},
		{"model without url", func(c *Config) { c.Oracle.Strategy = StrategyOllama; c.Oracle.BaseURL = "" }, "oracle.base_url"},
		{"negative timeout", func(c *Config) { c.Oracle.Timeout = -time.Second }, "oracle.timeout"},
		{"no database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"bad balance", func(c *Config) { c.Bank.StartingBalance = "lots" }, "bank.starting_balance"},
		{"bad limit", func(c *Config) { c.Bank.ATM.DailyLimit = "" }, "bank.atm.daily_limit"},
		{"no transactions", func(c *Config) { c.Bank.TransactionsShown = 0 }, "bank.transactions_shown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankchat.yaml")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "strategy: keyword")
	assert.Contains(t, contents, "starting_balance: \"1500.75\"")
	assert.Contains(t, contents, "path: bank_chatbot.db")
	assert.NotContains(t, contents, "static_dir")
}
