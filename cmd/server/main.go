package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/bus-trip-reservation/internal/booking"
    "github.com/iliyamo/bus-trip-reservation/internal/config"
    "github.com/iliyamo/bus-trip-reservation/internal/database"
    "github.com/iliyamo/bus-trip-reservation/internal/handler"
    "github.com/iliyamo/bus-trip-reservation/internal/middleware"
    "github.com/iliyamo/bus-trip-reservation/internal/payment"
    "github.com/iliyamo/bus-trip-reservation/internal/queue"
    "github.com/iliyamo/bus-trip-reservation/internal/repository"
    "github.com/iliyamo/bus-trip-reservation/internal/router"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional: without it the limiter and cache become no-ops.
    rdb := config.NewRedisClient()

    routes := repository.NewRouteRepo(db)
    vehicles := repository.NewVehicleRepo(db)
    trips := repository.NewTripRepo(db)
    seats := repository.NewSeatRepo(db)
    reservations := repository.NewReservationRepo(db)
    transactions := repository.NewTransactionRepo(db)
    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)

    bookingEngine := booking.NewEngine(db, trips, seats, reservations)
    paymentEngine := payment.NewEngine(db, bookingEngine, reservations, transactions, cfg.PaymentCeilingCents)

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    sweeper := booking.NewSweeper(bookingEngine, cfg.SweepInterval)
    go sweeper.Run(ctx)

    go func() {
        if err := queue.StartConfirmedConsumer(); err != nil {
            log.Printf("confirmed-consumer: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterHealth(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
    router.RegisterPublic(e, handler.NewBrowseHandler(routes, trips, bookingEngine), cache)
    router.RegisterCustomer(e,
        handler.NewReservationHandler(bookingEngine, reservations),
        handler.NewPaymentHandler(paymentEngine, reservations),
        cfg.JWTSecret,
    )
    router.RegisterAdmin(e, handler.NewAdminHandler(routes, vehicles, trips, paymentEngine), cfg.JWTSecret)

    go func() {
        addr := ":" + cfg.Port
        log.Printf("listening on %s (env=%s)", addr, cfg.Env)
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatalf("server: %v", err)
        }
    }()

    <-ctx.Done()
    log.Println("shutting down")

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}
