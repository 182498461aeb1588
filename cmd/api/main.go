package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/hotel-bookings/internal/catalog"
	"github.com/diagnosis/hotel-bookings/internal/http/handlers"
	"github.com/diagnosis/hotel-bookings/internal/identity"
	"github.com/diagnosis/hotel-bookings/internal/idgen"
	"github.com/diagnosis/hotel-bookings/internal/payment"
	"github.com/diagnosis/hotel-bookings/internal/platform/mailer"
	"github.com/diagnosis/hotel-bookings/internal/pricing"
	"github.com/diagnosis/hotel-bookings/internal/repo/memory"
	"github.com/diagnosis/hotel-bookings/internal/repo/postgres"
	redisrepo "github.com/diagnosis/hotel-bookings/internal/repo/redis"
	"github.com/diagnosis/hotel-bookings/internal/service"
	"github.com/diagnosis/hotel-bookings/internal/session"
	"github.com/diagnosis/hotel-bookings/pkg/config"
	"github.com/diagnosis/hotel-bookings/pkg/database"
	"github.com/diagnosis/hotel-bookings/pkg/events"
	"github.com/diagnosis/hotel-bookings/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		stateRepo session.StateRepository
		kv        handlers.KVStore
		rdb       *redis.Client
	)
	if cfg.State.Backend == "redis" {
		rdb, err = database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		stateRepo = redisrepo.NewStateRepo(rdb, cfg.State.TTL)
		kv = redisrepo.NewKV(rdb)
		logger.Info("Session state stored in Redis", "addr", cfg.Redis.Addr)
	} else {
		stateRepo = memory.NewStateRepo(cfg.State.TTL)
		kv = memory.NewKV()
		logger.Info("Session state stored in memory")
	}

	var source catalog.Source = catalog.JSONSource{Path: cfg.Catalog.Path}
	var pool *pgxpool.Pool
	if cfg.Catalog.Source == "postgres" {
		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		source = postgres.NewRoomRepo(pool)
	}
	rooms, err := catalog.Load(ctx, source)
	if err != nil {
		logger.Error("Failed to load room catalog", "source", cfg.Catalog.Source, "error", err)
		os.Exit(1)
	}
	logger.Info("Room catalog loaded", "source", cfg.Catalog.Source, "rooms", rooms.Len())

	var publisher events.Publisher = events.NewLogPublisher()
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, events will only be logged", "error", err)
		} else {
			publisher = nc
		}
	}
	defer publisher.Close()

	var mail mailer.Service = mailer.NewDevMailer()
	if cfg.Email.MailerSendKey != "" {
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	directory, err := identity.NewDirectory(nil)
	if err != nil {
		logger.Error("Failed to seed user directory", "error", err)
		os.Exit(1)
	}

	rnd := idgen.NewRandom(int64(cfg.Payment.Seed))
	simulator := payment.NewSimulator(
		payment.WithRandom(rnd),
		payment.WithLatency(cfg.Payment.MinLatency, cfg.Payment.MaxLatency),
		payment.WithSuccessRate(cfg.Payment.SuccessRate),
	)

	bookings := service.NewBookingService(
		rooms,
		simulator,
		idgen.New(rnd, time.Now),
		publisher,
		mail,
		pricing.NewFormatter(cfg.Locale.Language, cfg.Locale.Currency),
		time.Now,
	)

	sessions := session.NewManager(stateRepo,
		session.WithTTL(cfg.State.TTL),
		session.WithIdleTimeout(cfg.State.IdleTimeout),
	)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx, cfg.State.SweepInterval)

	router := handlers.NewRouter(handlers.Deps{
		Bookings:       bookings,
		Auth:           service.NewAuthService(directory, publisher),
		Sessions:       sessions,
		JWTSecret:      cfg.Auth.JWTSecret,
		SessionTTL:     cfg.Auth.SessionTTL,
		KV:             kv,
		IdempotencyTTL: cfg.Auth.IdempotencyTTL,
		LoginAttempts:  cfg.Auth.LoginAttempts,
		LoginWindow:    cfg.Auth.LoginWindow,
		AllowOrigins:   cfg.Server.AllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down hotel bookings API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		stopSweep()
	}()

	logger.Info("Starting hotel bookings API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped")
}
