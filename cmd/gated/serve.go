package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bidwire/gate/internal/audit"
	"github.com/bidwire/gate/internal/config"
	"github.com/bidwire/gate/internal/delivery"
	"github.com/bidwire/gate/internal/events"
	"github.com/bidwire/gate/internal/gate"
	"github.com/bidwire/gate/internal/identity"
	"github.com/bidwire/gate/internal/intake"
	"github.com/bidwire/gate/internal/server"
	"github.com/bidwire/gate/internal/store/postgres"
	"github.com/bidwire/gate/internal/transform"
	"github.com/bidwire/gate/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gate daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Seed the participant directory when a file is configured.
		if cfg.DirectoryFile != "" {
			n, err := identity.SeedStore(context.Background(), store, cfg.DirectoryFile)
			if err != nil {
				store.Close()
				return err
			}
			logger.Info("participant directory seeded", "file", cfg.DirectoryFile, "participants", n)
		}

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				store.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (GATE_NATS_URL not set)")
		}

		// Assemble the pipeline.
		resolver := identity.NewHeuristicResolver(identity.NewDirectoryResolver(store), logger)
		router := delivery.NewRouter(resolver, transport.NewHTTPTransport(0), cfg.BroadcastParallelism, logger)
		transformer := transform.New(transform.NewAliasBook())
		g := gate.New(store, resolver, transformer, router, publisher, logger)

		// Start HTTP server.
		gateServer := server.NewGateServer(g, store, logger)
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: gateServer.NewHTTPHandler(cfg.AuthToken),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the bus intake when NATS is available.
		var intakeCancel context.CancelFunc
		intakeDone := make(chan struct{})
		if cfg.NATSURL != "" {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL)
			if err != nil {
				logger.Error("failed to create intake subscriber", "err", err)
				close(intakeDone)
			} else {
				consumer := intake.NewConsumer(sub, g, cfg.BroadcastParallelism, logger)
				var intakeCtx context.Context
				intakeCtx, intakeCancel = context.WithCancel(context.Background())
				go func() {
					defer close(intakeDone)
					if err := consumer.Run(intakeCtx); err != nil && err != context.Canceled {
						logger.Error("intake consumer error", "err", err)
					}
					sub.Close()
				}()
				logger.Info("intake consumer started")
			}
		} else {
			close(intakeDone)
		}

		// Start the audit export scheduler if a destination is configured.
		var scheduler *audit.Scheduler
		if cfg.AuditInterval > 0 && cfg.AuditS3Bucket != "" {
			s3Dest, err := audit.NewS3Destination(
				context.Background(),
				cfg.AuditS3Bucket,
				cfg.AuditS3Key,
				cfg.AuditS3Region,
				cfg.AuditS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 audit destination", "err", err)
			} else {
				scheduler = audit.NewScheduler(store, []audit.Destination{s3Dest}, cfg.AuditInterval, logger)
				scheduler.Start()
				logger.Info("audit export started",
					"bucket", cfg.AuditS3Bucket, "key", cfg.AuditS3Key, "interval", cfg.AuditInterval)
			}
		}

		logger.Info("gate started", "http_addr", cfg.HTTPAddr)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown.
		if intakeCancel != nil {
			intakeCancel()
		}
		<-intakeDone
		logger.Info("intake consumer stopped")

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("audit export stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}
