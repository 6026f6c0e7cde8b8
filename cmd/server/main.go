package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/scooter-reservation/internal/cache"
    "github.com/iliyamo/scooter-reservation/internal/config"
    "github.com/iliyamo/scooter-reservation/internal/database"
    "github.com/iliyamo/scooter-reservation/internal/handler"
    "github.com/iliyamo/scooter-reservation/internal/middleware"
    "github.com/iliyamo/scooter-reservation/internal/queue"
    "github.com/iliyamo/scooter-reservation/internal/repository"
    "github.com/iliyamo/scooter-reservation/internal/router"
    "github.com/iliyamo/scooter-reservation/internal/service"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        logrus.WithError(err).Fatal("load config")
    }
    log := config.NewLogger(cfg.Env, cfg.LogLevel)

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.WithError(err).Fatal("open database")
    }
    defer db.Close()
    if cfg.Migrate {
        if err := database.Migrate(ctx, db); err != nil {
            log.WithError(err).Fatal("migrate database")
        }
    }

    // Redis is optional; without it there is no rate limiting or caching.
    var (
        rateLimit echo.MiddlewareFunc
        respCache echo.MiddlewareFunc
        gens      *cache.Generations
    )
    redisCfg, err := config.LoadRedisConfig()
    if err != nil {
        log.WithError(err).Fatal("load redis config")
    }
    if rdb := config.NewRedisClient(redisCfg); rdb != nil {
        defer rdb.Close()
        gens = cache.NewGenerations(rdb, "")
        rlCfg, err := config.LoadRateLimitConfig()
        if err != nil {
            log.WithError(err).Fatal("load rate limit config")
        }
        cacheCfg, err := config.LoadCacheConfig()
        if err != nil {
            log.WithError(err).Fatal("load cache config")
        }
        rateLimit = middleware.NewTokenBucket(rlCfg, rdb, log)
        respCache = middleware.NewRedisCache(cacheCfg, rdb, gens, log)
        log.WithField("addr", redisCfg.Address()).Info("redis connected")
    } else {
        log.WithField("addr", redisCfg.Address()).Warn("redis unavailable; rate limiting and caching disabled")
    }

    deps := service.Deps{
        Users:    repository.NewUserRepo(db),
        Pools:    repository.NewPoolRepo(db),
        Bookings: repository.NewBookingRepo(db),
    }
    if gens != nil {
        deps.Cache = gens
    }

    var publisher *queue.Publisher
    if cfg.RabbitURL != "" {
        publisher, err = queue.NewPublisher(cfg.RabbitURL, cfg.BookingExchange)
        if err != nil {
            log.WithError(err).Warn("rabbitmq unavailable; booking events disabled")
        } else {
            defer publisher.Close()
            deps.Events = publisher
        }
    }

    opts := service.Options{
        Hours:     service.Hours{Opening: cfg.Booking.OpeningHour, Closing: cfg.Booking.ClosingHour},
        Buffer:    cfg.Booking.Buffer(),
        Durations: cfg.Booking.DurationOptions(),
        Location:  cfg.Booking.Location(),
    }
    svc := service.NewBookingService(deps, opts, log)

    if cfg.RabbitURL != "" {
        consumer := &queue.Consumer{
            URL:      cfg.RabbitURL,
            Queue:    cfg.ScooterEventsQueue,
            Exchange: cfg.ScooterExchange,
            Handler:  svc,
            Log:      log,
        }
        go func() {
            if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
                log.WithError(err).Error("scooter event consumer stopped")
            }
        }()
    }

    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewRequestValidator()
    e.HTTPErrorHandler = handler.ErrorHandler
    e.Use(echomw.Recover())
    e.Use(echomw.RequestID())
    e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            log.WithFields(logrus.Fields{
                "method":     v.Method,
                "uri":        v.URI,
                "status":     v.Status,
                "latency":    v.Latency.String(),
                "request_id": v.RequestID,
            }).Info("request")
            return nil
        },
    }))

    router.RegisterRoutes(e, router.Routes{
        JWTSecret: cfg.JWTSecret,
        Health:    handler.Health{DB: db},
        Bookings:  handler.NewBookingHandler(svc),
        Admin:     handler.NewAdminBookingHandler(svc),
        RateLimit: rateLimit,
        Cache:     respCache,
    })

    go func() {
        addr := ":" + cfg.Port
        log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.WithError(err).Fatal("http server")
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.WithError(err).Error("shutdown")
    }
}
