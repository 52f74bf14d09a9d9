package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/coworking-space-rental/internal/config"
    "github.com/iliyamo/coworking-space-rental/internal/database"
    "github.com/iliyamo/coworking-space-rental/internal/gateway"
    "github.com/iliyamo/coworking-space-rental/internal/handler"
    "github.com/iliyamo/coworking-space-rental/internal/middleware"
    "github.com/iliyamo/coworking-space-rental/internal/payment"
    "github.com/iliyamo/coworking-space-rental/internal/queue"
    "github.com/iliyamo/coworking-space-rental/internal/repository"
    "github.com/iliyamo/coworking-space-rental/internal/router"
    queue_publisher "github.com/iliyamo/coworking-space-rental/internal/service"
)

func main() {
    _ = godotenv.Load() // .env is optional; real deployments use the environment

    cfg := config.Load()

    logger := logrus.New()
    logger.SetFormatter(&logrus.JSONFormatter{})
    if cfg.Env == "dev" {
        logger.SetLevel(logrus.DebugLevel)
        logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
    }

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("open database: %v", err)
    }
    defer db.Close()

    // Redis backs the response cache, the rate limiter and the OAuth
    // state binding. nil when unreachable; every consumer degrades.
    rdb := config.NewRedisClient()

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    spaces := repository.NewSpaceRepo(db)
    plans := repository.NewPlanRepo(db)
    subs := repository.NewSubscriptionRepo(db)
    reservations := repository.NewReservationRepo(db)
    payments := repository.NewPaymentRepo(db)
    gateways := repository.NewGatewayRepo(db)

    client := gateway.New(cfg.GatewayBaseURL, cfg.GatewaySecretKey, cfg.GatewayClientID, cfg.GatewayClientSecret, cfg.GatewayRedirectURL)
    store := payment.NewSQLStore(payments, reservations, gateways)
    publisher := queue_publisher.NewPublisher()
    coordinator := payment.New(store, client, store, publisher, logger)

    e := echo.New()
    e.HideBanner = true

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)

    // Public browse routes get the redis response cache and the token
    // bucket limiter; everything payment-status shaped stays uncached.
    cacheCfg := config.LoadCacheConfig()
    rateCfg := config.LoadRateLimitConfig()
    router.RegisterPublic(e,
        handler.NewPublicHandler(spaces, plans),
        middleware.NewTokenBucket(rateCfg, rdb),
        middleware.NewRedisCache(cacheCfg, rdb),
    )

    customer := handler.NewCustomerHandler(cfg, spaces, plans, subs, reservations, payments, gateways, client, coordinator)
    subscription := handler.NewSubscriptionHandler(plans, subs)
    router.RegisterCustomer(e, customer, subscription, cfg.JWTSecret)

    owner := handler.NewOwnerHandler(spaces, reservations)
    gatewayH := handler.NewGatewayHandler(spaces, gateways, client, coordinator, rdb)
    router.RegisterOwner(e, owner, gatewayH, cfg.JWTSecret)

    admin := handler.NewAdminHandler(plans, subs, users, coordinator)
    router.RegisterAdmin(e, admin, cfg.JWTSecret)

    router.RegisterWebhook(e, handler.NewWebhookHandler(cfg.GatewayWebhookSecret, coordinator))

    // Background consumer turning payment events into audit log lines.
    go queue.StartPaymentConsumer()

    addr := ":" + cfg.Port
    logger.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
