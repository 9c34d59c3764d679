package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"oro/internal/amqp"
	"oro/internal/cache"
	"oro/internal/cli"
	apphttp "oro/internal/http"
	"oro/internal/events"
	"oro/internal/services"
	"oro/internal/session"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)

	bus := events.NewBus()
	records := services.NewRecordSet(res.Store)
	bus.Handle(records.OnChange)

	// Signed links are cached for a little less than they stay valid so a
	// cached link always has time left when it is handed out.
	urlCache := cache.NewLRUCache[string](256, cfg.SignedURLTTL*5/6)
	caches := cache.NewManager()
	caches.Register(urlCache)
	caches.StartCleanup(5 * time.Minute)

	investments := services.NewInvestmentService(res.Store, res.Blobs, bus, services.InvestmentOptions{
		MaxUploadBytes: cfg.MaxUploadBytes,
		CleanupOrphans: cfg.CleanupOrphanBlobs,
		SignedURLTTL:   cfg.SignedURLTTL,
		URLCache:       urlCache,
	})

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		c, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The sheet mirror catches up through reconcile, so the app
			// runs without forwarding rather than refusing to start.
			logger.Warn("AMQP unavailable, record changes will not be forwarded", "error", err)
		} else {
			amqpClient = c
			logger.Info("Forwarding record changes to AMQP", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Records:     records,
		Investments: investments,
		Gate:        session.NewGate(res.Store),
		Sessions:    session.NewJWTService([]byte(cfg.SessionSecret), cfg.SessionTTL, cfg.SecureCookies),
		Blobs:       res.Blobs,
		Signer:      res.Signer,
		Ready:       res,
		URLCache:    urlCache,
		Caches:      caches,
	}, apphttp.Options{
		Location:       cfg.Location(),
		PageSize:       cfg.PageSize,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		bus.Close()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", "error", err)
		}
	})

	if amqpClient != nil {
		changes, _ := bus.Subscribe(64)
		go amqp.NewForwarder(amqpClient).Run(ctx, changes)
	}

	logger.Info("Starting oro server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"blobs", cfg.BlobBackend,
		"timezone", cfg.DisplayTimezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
