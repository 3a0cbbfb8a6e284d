package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/XavierBriggs/Paddock/adapters/betfair"
	"github.com/XavierBriggs/Paddock/adapters/racingdata"
	"github.com/XavierBriggs/Paddock/internal/config"
	"github.com/XavierBriggs/Paddock/internal/recon"
	"github.com/XavierBriggs/Paddock/internal/scheduler"
	"github.com/XavierBriggs/Paddock/internal/server"
	"github.com/XavierBriggs/Paddock/internal/snapshot"
	"github.com/XavierBriggs/Paddock/internal/store"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(os.Getenv("PADDOCK_CONFIG"))
	if err != nil {
		logger.WithError(err).Fatal("configuration invalid")
	}
	configureLogger(logger, cfg.Logging)

	ctx := context.Background()

	// Postgres race store
	db, err := sql.Open("postgres", cfg.Storage.DSN)
	if err != nil {
		logger.WithError(err).Fatal("cannot open postgres")
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.WithError(err).Fatal("cannot ping postgres")
	}
	raceStore := store.NewPostgres(db)
	if err := raceStore.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("cannot ensure schema")
	}
	logger.Info("connected to postgres")

	// Redis snapshot cache; the service degrades to store-only when
	// Redis is unreachable. The interface stays nil in that case.
	var publisher scheduler.Publisher
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.RedisAddr,
		Password: cfg.Storage.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unavailable, snapshots disabled")
	} else {
		publisher = snapshot.NewPublisher(redisClient, cfg.Storage.CacheTTL)
		logger.Info("connected to redis")
	}

	// Adapters
	exchange := betfair.NewClient(betfair.Credentials{
		Username: cfg.Exchange.Username,
		Password: cfg.Exchange.Password,
		AppKey:   cfg.Exchange.AppKey,
		CertPEM:  cfg.Exchange.CertPEM,
		KeyPEM:   cfg.Exchange.KeyPEM,
	}, logger)

	racing := racingdata.NewClient(cfg.RacingAPI.Username, cfg.RacingAPI.Password)
	if cfg.RacingAPI.BaseURL != "" {
		racing.SetBaseURL(cfg.RacingAPI.BaseURL)
	}

	// Scheduler
	location, err := time.LoadLocation(cfg.Scheduler.Location)
	if err != nil {
		logger.WithError(err).WithField("location", cfg.Scheduler.Location).Fatal("invalid location")
	}
	engine := recon.NewEngine(raceStore, logger)
	sched := scheduler.NewScheduler(raceStore, exchange, racing, engine, publisher, logger, scheduler.Options{
		Interval:        cfg.Scheduler.Interval,
		WindowStartHour: cfg.Scheduler.WindowStartHour,
		WindowEndHour:   cfg.Scheduler.WindowEndHour,
		Location:        location,
	})

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()
	sched.Start(schedCtx)

	// HTTP server
	srv := server.New(exchange, racing, racing, raceStore, logger)
	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.WithField("addr", httpServer.Addr).Info("http server listening")
		serverErrors <- httpServer.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.WithError(err).Fatal("http server failed")

	case sig := <-shutdown:
		logger.WithField("signal", sig.String()).Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("graceful shutdown failed")
			httpServer.Close()
		}
		cancelSched()
		sched.Stop()
	}

	logger.Info("shutdown complete")
}

func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
