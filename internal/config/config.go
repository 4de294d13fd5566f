// Package config reads and writes the bankchat YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RichardoC/bankchat/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Oracle strategies.
const (
	StrategyKeyword = "keyword"
	StrategyOllama  = "ollama"
	StrategyOpenAI  = "openai"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Bank     BankConfig     `yaml:"bank"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir,omitempty"` // served at / when set
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OracleConfig selects how chat replies are produced.
type OracleConfig struct {
	Strategy string        `yaml:"strategy"` // keyword | ollama | openai
	BaseURL  string        `yaml:"base_url"`
	Model    string        `yaml:"model"`
	Token    string        `yaml:"token,omitempty"`
	Timeout  time.Duration `yaml:"timeout"` // 0 = no timeout
}

// BankConfig holds the demo bank's static data. Amounts are decimal strings.
type BankConfig struct {
	StartingBalance   string    `yaml:"starting_balance"`
	Knowledge         string    `yaml:"knowledge"`
	TransactionsShown int       `yaml:"transactions_shown"`
	ATM               ATMConfig `yaml:"atm"`
}

type ATMConfig struct {
	Location   string `yaml:"location"`
	Branch     string `yaml:"branch"`
	DailyLimit string `yaml:"daily_limit"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads a config file from disk. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8100",
		},
		Database: DatabaseConfig{
			Path: "bank_chatbot.db",
		},
		Oracle: OracleConfig{
			Strategy: StrategyKeyword,
			BaseURL:  "http://localhost:11434",
			Model:    "llama3",
			Token:    "ollama",
		},
		Bank: BankConfig{
			StartingBalance: "1500.75",
			Knowledge: "A standard transaction fee is $1.00. " +
				"The maximum daily ATM withdrawal limit is $500. " +
				"Loan interest rates start at 4.5%. " +
				"Overdraft fees are $35.",
			TransactionsShown: 10,
			ATM: ATMConfig{
				Location:   "123 Main St, Financial District",
				Branch:     "456 Elm Ave, Downtown",
				DailyLimit: "500",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the fields that cannot be checked by the YAML decoder.
func (c *Config) Validate() error {
	var errs []error
	switch c.Oracle.Strategy {
	case StrategyKeyword, StrategyOllama, StrategyOpenAI:
	default:
		errs = append(errs, fmt.Errorf("oracle.strategy: unknown strategy %q", c.Oracle.Strategy))
	}
	if c.Oracle.Strategy != StrategyKeyword && c.Oracle.BaseURL == "" {
		errs = append(errs, errors.New("oracle.base_url: required for model strategies"))
	}
	if c.Oracle.Timeout < 0 {
		errs = append(errs, errors.New("oracle.timeout: must not be negative"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path: required"))
	}
	if _, err := decimal.NewFromString(c.Bank.StartingBalance); err != nil {
		errs = append(errs, fmt.Errorf("bank.starting_balance: %w", err))
	}
	if _, err := decimal.NewFromString(c.Bank.ATM.DailyLimit); err != nil {
		errs = append(errs, fmt.Errorf("bank.atm.daily_limit: %w", err))
	}
	if c.Bank.TransactionsShown <= 0 {
		errs = append(errs, errors.New("bank.transactions_shown: must be positive"))
	}
	return errors.Join(errs...)
}

// StartingBalance is the balance of a newly opened account. Call Validate
// first.
func (c *Config) StartingBalance() decimal.Decimal {
	return decimal.RequireFromString(c.Bank.StartingBalance)
}

// Branch returns the ATM and branch details shown on the ATM view. Call
// Validate first.
func (c *Config) Branch() models.BranchInfo {
	return models.BranchInfo{
		ATMLocation:   c.Bank.ATM.Location,
		Branch:        c.Bank.ATM.Branch,
		DailyATMLimit: decimal.RequireFromString(c.Bank.ATM.DailyLimit),
	}
}
