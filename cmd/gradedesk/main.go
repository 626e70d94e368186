package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"gradedesk/internal/config"
	"gradedesk/internal/http/handlers"
	applog "gradedesk/internal/log"
	"gradedesk/internal/pricing"
	"gradedesk/internal/repos"
	"gradedesk/internal/services"
	"gradedesk/internal/tasks"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Collaborators: all optional, all advisory
	var oracle pricing.Oracle
	if cfg.OracleURL != "" {
		oracle = pricing.NewHTTPOracle(cfg.OracleURL)
	}
	var writer tasks.SaleWriter = tasks.NopSaleWriter{}
	if cfg.LedgerURL != "" {
		writer = tasks.NewHTTPSaleWriter(cfg.LedgerURL)
	}
	var scheduler tasks.RefreshScheduler = tasks.NopScheduler{}
	if cfg.RedisAddr != "" {
		client, err := tasks.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Printf("[warn] redis unavailable, refresh scheduling disabled: %v", err)
		} else {
			defer client.Close()
			scheduler = tasks.NewRedisScheduler(client)
		}
	}

	// Outbox dispatcher delivers post-commit side effects in the background.
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher := tasks.NewDispatcher(repos.NewOutboxRepo(db), writer, scheduler, cfg.RefreshDelay, cfg.OutboxPoll)
	go dispatcher.Run(dispatchCtx)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			body := fiber.Map{"error": "something went wrong"}
			if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
				body["correlationId"] = rid
			}
			return c.Status(fiber.StatusInternalServerError).JSON(body)
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// ---------- Routes ----------
	deps := handlers.NewDeps(db, oracle)

	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	api := app.Group("/api/v1", handlers.RequireUser(authSvc))

	api.Post("/buy-sessions", deps.SessionHandler.Create)
	api.Get("/buy-sessions/:id", deps.SessionHandler.Detail)
	api.Post("/buy-sessions/:id/lines", deps.SessionHandler.AddLine)
	api.Delete("/buy-sessions/:id/lines/:lineId", deps.SessionHandler.RemoveLine)
	api.Post("/buy-sessions/:id/checkout", deps.CheckoutHandler.Finalize)

	api.Post("/purchases/:assetId/undo", deps.UndoHandler.UndoPurchase)
	api.Get("/purchases", deps.AdminHandler.Purchases)
	api.Get("/holdings", deps.AdminHandler.Holdings)
	api.Get("/admin/outbox", handlers.RequireAdmin(authSvc), deps.AdminHandler.OutboxBacklog)

	api.Post("/consignments/:id/assets", deps.BulkHandler.AddAssets)
	api.Patch("/consignments/:id/assets", deps.BulkHandler.Update)
	api.Delete("/consignments/:id/assets", deps.BulkHandler.Delete)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return fail404(c)
	})

	// Graceful shutdown: stop taking requests, then flush the outbox once.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] %v", err)
	}

	stopDispatch()
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dispatcher.DrainOnce(flushCtx)
}

func fail404(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
}
