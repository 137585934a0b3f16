package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/sheets/memory"
	"ledger/internal/storage"
	"ledger/internal/worker"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, logger, err := cli.Bootstrap(log.ComponentWorker)
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for ledger-worker")
	}
	logger.InfoContext(context.Background(), "Starting ledger-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	var mirror sheets.TransactionMirror
	if cfg.MirrorEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return err
		}
		mirror = client
		logger.InfoContext(ctx, "Google Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = memory.New()
		logger.InfoContext(ctx, "Google Sheets disabled - mirroring into memory", "hint", "set GOOGLE_SPREADSHEET_ID")
	}

	// Only a shared database can be reconciled against; a memory ledger
	// lives in the API process.
	var source ledger.Store
	if sharesDatabase(cfg.DataBackend) {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return err
		}
		defer repo.Close()
		source = repo
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer consumer.Close()

	w := worker.NewMirrorWorker(mirror, source)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Consume(gctx, w.HandleEvent)
	})
	if source != nil {
		g.Go(func() error {
			reconcileLoop(gctx, w, cfg.MirrorReconcileInterval)
			return nil
		})
	}

	err = g.Wait()
	logger.InfoContext(context.Background(), "Worker shutdown complete")
	return err
}

// sharesDatabase reports whether the API's ledger can be read from this
// process. Matching is case-insensitive like the backend selection.
func sharesDatabase(dataBackend string) bool {
	return strings.EqualFold(strings.TrimSpace(dataBackend), "sqlite")
}

// reconcileLoop runs one pass at startup, then every interval until ctx ends.
func reconcileLoop(ctx context.Context, w *worker.MirrorWorker, interval time.Duration) {
	if err := w.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup reconciliation failed", "error", err)
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Reconcile(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic reconciliation failed", "error", err)
			}
		}
	}
}
