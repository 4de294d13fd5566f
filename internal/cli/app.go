package cli

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/RichardoC/bankchat/internal/auth"
	"github.com/RichardoC/bankchat/internal/config"
	"github.com/RichardoC/bankchat/internal/db"
	"github.com/RichardoC/bankchat/internal/llm"
	"github.com/RichardoC/bankchat/internal/session"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// app owns the resources shared by the serve and chat commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *db.Database
	deps   session.Deps
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	database, err := db.New(ctx, cfg.Database.Path, logger)
	if err != nil {
		logger.Error("failed to initialize database",
			zap.Error(err),
			zap.String("dbPath", cfg.Database.Path))
		return nil, err
	}

	oracle, err := llm.New(cfg.Oracle, cfg.Bank.Knowledge, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	logger.Info("oracle ready",
		zap.String("strategy", cfg.Oracle.Strategy),
		zap.String("model", cfg.Oracle.Model))

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     database,
		deps: session.Deps{
			Credentials:       auth.NewService(database, cfg.StartingBalance()),
			Ledger:            database,
			Chats:             database,
			Oracle:            oracle,
			Branch:            cfg.Branch(),
			TransactionsShown: cfg.Bank.TransactionsShown,
			Logger:            logger,
		},
	}, nil
}

// Close releases the database and flushes the logger.
func (a *app) Close() error {
	err := a.db.Close()
	// stderr on a terminal cannot be synced
	if syncErr := a.logger.Sync(); syncErr != nil &&
		!errors.Is(syncErr, syscall.EINVAL) && !errors.Is(syncErr, syscall.ENOTTY) {
		err = multierr.Append(err, syncErr)
	}
	return err
}
