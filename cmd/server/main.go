package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/event-seat-booking/internal/config"
	"github.com/iliyamo/event-seat-booking/internal/database"
	"github.com/iliyamo/event-seat-booking/internal/handler"
	"github.com/iliyamo/event-seat-booking/internal/logger"
	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/realtime"
	"github.com/iliyamo/event-seat-booking/internal/repository"
	"github.com/iliyamo/event-seat-booking/internal/router"
	"github.com/iliyamo/event-seat-booking/internal/service"
)

// noStream answers every stream request with an error when Redis is down.
type noStream struct{}

func (noStream) Stream(context.Context, string) (<-chan model.Seat, error) {
	return nil, errors.New("redis not configured")
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			lg.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var (
		seatPub   service.SeatPublisher
		stream    handler.SeatStream = noStream{}
		redisPing handler.Pinger
	)
	if rdb != nil {
		defer rdb.Close()
		seatPub = realtime.NewPublisher(rdb, lg)
		stream = realtime.NewSubscriber(rdb, lg)
		redisPing = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		lg.Warn("redis unavailable: realtime, cache and rate limiting disabled")
	}

	var events service.EventPublisher
	if cfg.Booking.PublishEvents {
		qp := service.NewQueuePublisher(cfg.RabbitURL, lg)
		defer qp.Close()
		events = qp
	}

	venues := repository.NewVenueRepo(db)
	cats := repository.NewCategoryRepo(db)
	svc := service.NewBookingService(repository.NewBookingRepo(db), seatPub, events, cfg.Booking, lg)

	bookings := handler.NewBookingHandler(svc, lg)
	e := router.New(router.Deps{
		Venues:    handler.NewVenueHandler(venues, cats, lg),
		Bookings:  bookings,
		Admin:     handler.NewAdminHandler(bookings, cats, lg),
		Stream:    handler.NewStreamHandler(stream, cfg.Booking.StreamHeartbeat, lg),
		Ready:     handler.Ready(map[string]handler.Pinger{"mysql": db, "redis": redisPing}),
		JWTSecret: cfg.JWTSecret,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Log:       lg,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("listening", "addr", ":"+cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return service.NewHoldSweeper(svc, cfg.Booking.SweepInterval, lg).Run(gctx)
	})
	if cfg.Booking.PublishEvents {
		g.Go(func() error {
			err := queue.NewConsumer(cfg.RabbitURL, lg).Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		lg.Error("server stopped", "error", err)
		os.Exit(1)
	}
	lg.Info("server stopped")
}
