package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	logger "finboard/internal/log"
	"finboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	log := cli.SetupLogger(logger.ComponentWorker)
	log.Info("Starting finboard-worker")

	cfg := cli.LoadAndValidateConfig(log)

	repo := cli.InitSQLite(log, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		log.Error("Failed to initialize AMQP client", logger.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reconciler := worker.NewReconcileWorker(repo, cfg.ReconcileBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repair anything that drifted while the worker was down.
	if err := reconciler.SweepAccounts(ctx); err != nil {
		log.Error("Startup sweep failed", logger.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeTransactionMutations(gctx, reconciler.HandleMutationMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Periodic sweep covers mutation events that never arrived.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := reconciler.SweepAccounts(gctx); err != nil {
					log.Error("Periodic sweep failed", logger.FieldError, err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		log.Error("Worker error", logger.FieldError, err)
		os.Exit(1)
	}
	log.Info("Worker stopped gracefully")
}
