package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	logger "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	ports "finboard/internal/sheets"
	gsheet "finboard/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	log := cli.SetupLogger(logger.ComponentApp)
	cfg := cli.LoadAndValidateConfig(log)

	repo := cli.InitSQLite(log, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Messaging is optional; without it the periodic sweep in the worker
	// still reconciles balances.
	var events apphttp.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		log.Warn("AMQP unavailable, mutation events disabled", logger.FieldError, err)
	} else {
		defer amqpClient.Close()
		events = amqpClient
	}

	var sheet ports.RowAppender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			log.Error("Failed to initialize Google Sheets client", logger.FieldError, err)
			os.Exit(1)
		}
		sheet = client
		log.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		log.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, events, sheet, apphttp.Options{
		ReportCacheSize: cfg.ReportCacheSize,
		ReportCacheTTL:  cfg.ReportCacheTTL,
		RateLimit:       ratelimit.DefaultConfig(),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting finboard server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", logger.FieldError, err)
		os.Exit(1)
	}
	log.Info("Server stopped gracefully")
}
