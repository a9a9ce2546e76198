package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Houeta/stock-flow/internal/catalog"
	"github.com/Houeta/stock-flow/internal/config"
	"github.com/Houeta/stock-flow/internal/notifier"
	"github.com/Houeta/stock-flow/internal/report"
	"github.com/Houeta/stock-flow/internal/repository/sqlite"
	"github.com/Houeta/stock-flow/internal/services/checker"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application. One invocation runs exactly one
// monitoring cycle; scheduling is the job runner's concern.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	repo, err := sqlite.NewRepository(ctx, logger, cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to init repository: %v", err)
	}
	defer func() {
		if err = repo.Close(); err != nil {
			logger.Error("Failed to close repository", "error", err)
		}
	}()

	senders, err := buildSenders(logger, cfg)
	if err != nil {
		log.Fatalf("Failed to init notification senders: %v", err)
	}

	stockChecker := checker.NewChecker(
		logger,
		catalog.NewClient(logger, cfg.CatalogURL, cfg.HTTPTimeout),
		catalog.NewExtractor(cfg.ProductURL, cfg.Keyword),
		repo,
		notifier.New(logger, cfg.Mail.MaxRetries, cfg.Mail.RetryDelay, senders...),
		checker.Options{CollectionID: cfg.CollectionID, Inspect: cfg.Inspect},
	)

	logger.InfoContext(ctx, "Starting monitoring cycle",
		"collection_id", cfg.CollectionID, "keyword", cfg.Keyword, "inspect", cfg.Inspect)

	result, err := stockChecker.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Monitoring cycle failed", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Monitoring cycle completed",
		"collection", result.CollectionName,
		"in_stock", len(result.Snapshot.InStock),
		"newly_available", len(result.NewlyAvailable))

	// The full-snapshot document is best-effort; a write failure must not
	// fail an otherwise successful run.
	if cfg.ReportPath != "" {
		doc := report.Build(result.Snapshot, cfg.CollectionID, result.CheckedAt)
		if err = report.Write(cfg.ReportPath, doc); err != nil {
			logger.WarnContext(ctx, "Failed to write snapshot report", "path", cfg.ReportPath, "error", err)
		} else {
			logger.InfoContext(ctx, "Snapshot report written", "path", cfg.ReportPath, "products", doc.Total)
		}
	}
}

// buildSenders assembles the notification transports: mail always (outside
// inspect mode), Telegram when a token is configured.
func buildSenders(logger *slog.Logger, cfg *config.Config) ([]notifier.Sender, error) {
	if cfg.Inspect {
		return nil, nil
	}

	var senders []notifier.Sender

	mailSender, err := notifier.NewSMTPSender(logger, notifier.SMTPConfig{
		Host:      cfg.Mail.Host,
		Port:      cfg.Mail.Port,
		Username:  cfg.Mail.Username,
		Password:  cfg.Mail.Password,
		Recipient: cfg.Mail.Recipient,
		Timeout:   cfg.Mail.Timeout,
	})
	if err != nil {
		return nil, err
	}
	senders = append(senders, mailSender)

	if cfg.Tg.Token != "" {
		tgSender, err := notifier.NewTelegramSender(logger, cfg.Tg.Token, cfg.Tg.ChatID, cfg.Tg.Timeout)
		if err != nil {
			return nil, err
		}
		senders = append(senders, tgSender)
	}

	return senders, nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
