package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/cardbook/crm-frontend/internal/backend"
    "github.com/cardbook/crm-frontend/internal/config"
    "github.com/cardbook/crm-frontend/internal/handler"
    "github.com/cardbook/crm-frontend/internal/middleware"
    "github.com/cardbook/crm-frontend/internal/queue"
    "github.com/cardbook/crm-frontend/internal/router"
    "github.com/cardbook/crm-frontend/internal/store"
    "github.com/cardbook/crm-frontend/internal/verification"
)

func main() {
    // A local .env is a convenience for development; absence is fine.
    if err := godotenv.Load(); err == nil {
        log.Println("loaded configuration from .env")
    }
    cfg := config.Load()

    // Session store: Redis in production, process memory when Redis is
    // unreachable.  Degrading beats refusing logins, but sessions then
    // die with the process, so say so loudly.
    var kv store.KV
    rdb := config.NewRedisClient()
    if rdb != nil {
        kv = store.NewRedis(rdb)
    } else {
        log.Println("redis unavailable: sessions are in-memory and will not survive a restart")
        kv = store.NewMemory()
    }

    api := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)
    attempts := verification.NewAttempts()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Recover())
    e.Use(echomw.Logger())
    e.Use(middleware.BrowserSession(kv, cfg.CookieName, cfg.CookieSecure))

    router.RegisterAll(e, cfg, rdb, router.Handlers{
        Auth:    handler.NewAuthHandler(cfg, api, attempts),
        Profile: handler.NewProfileHandler(api),
        Org:     handler.NewOrganizationHandler(api),
        Invite:  handler.NewInviteHandler(api),
        Billing: handler.NewBillingHandler(api),
        Contact: handler.NewContactHandler(api),
    })

    // Activity consumer runs for the life of the process and reconnects
    // on its own; it never takes the server down.
    go func() {
        if err := queue.StartActivityConsumer(); err != nil {
            log.Printf("activity consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s, backend=%s)", addr, cfg.Env, cfg.BackendBaseURL)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
