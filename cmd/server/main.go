package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sewconnect-backend/internal/config"
	"sewconnect-backend/internal/database"
	"sewconnect-backend/internal/handler"
	"sewconnect-backend/internal/middleware"
	"sewconnect-backend/internal/model"
	"sewconnect-backend/internal/repository"
	"sewconnect-backend/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	convRepo := repository.NewConversationRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, sessionRepo, cfg.JWTSecret)
	orderSvc := service.NewOrderService(orderRepo)
	notifier := service.NewNotifier()
	responder := service.NewCannedResponder()
	convSvc := service.NewConversationService(convRepo, userRepo, orderSvc, notifier, responder, cfg.ReplyDelay)
	sessions := service.NewSessionManager(convSvc)
	images := service.NewAttachmentStore(cfg.UploadDir, "/uploads")
	wsHub := service.NewWSHub()
	convSvc.AttachHub(wsHub)

	// Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BodyLimit:    5 * 1024 * 1024, // 5MB, inspiration photos
	})

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(cors.New())

	if cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	// Health
	healthH := handler.NewHealthHandler(db)
	app.Get("/health", healthH.Health)
	app.Get("/ready", healthH.Ready)

	// API v1
	v1 := app.Group("/api/v1")

	// Auth (public)
	authH := handler.NewAuthHandler(authSvc)
	auth := v1.Group("/auth")
	auth.Post("/register", middleware.RateLimit(5, time.Minute), authH.Register)
	auth.Post("/login", middleware.RateLimit(10, time.Minute), authH.Login)
	auth.Post("/refresh", middleware.RateLimit(20, time.Minute), authH.Refresh)
	auth.Post("/logout", authH.Logout)

	// Admin — registered BEFORE protected group
	admin := v1.Group("/admin", middleware.AdminKey(cfg.AdminKey))
	adminH := handler.NewAdminHandler(userRepo, convRepo, orderRepo, wsHub)
	admin.Get("/stats", adminH.Stats)
	admin.Post("/announce", adminH.Announce)

	// JWT-protected routes (catch-all — must be LAST)
	protected := v1.Group("", middleware.Auth(cfg.JWTSecret))

	// Seamstress directory
	seamstressH := handler.NewSeamstressHandler(userRepo)
	protected.Get("/seamstresses", seamstressH.List)

	// Conversations
	convH := handler.NewConversationHandler(convSvc, sessions, images)
	conversations := protected.Group("/conversations")
	conversations.Post("/", middleware.RequireRole(model.RoleCustomer), convH.Start)
	conversations.Get("/", convH.List)
	conversations.Get("/:id", convH.Get)
	conversations.Post("/:id/messages", convH.PostMessage)
	conversations.Post("/:id/images", convH.PostImage)
	conversations.Post("/:id/measurements", convH.PostMeasurements)
	conversations.Post("/:id/delivery", convH.PostDelivery)
	conversations.Post("/:id/submit-order", middleware.RequireRole(model.RoleCustomer), convH.SubmitOrder)

	// Orders
	orderH := handler.NewOrderHandler(orderSvc)
	orders := protected.Group("/orders")
	orders.Get("/", middleware.RequireRole(model.RoleSeamstress), orderH.List)
	orders.Get("/:id", orderH.Get)
	orders.Put("/:id/status", middleware.RequireRole(model.RoleSeamstress), orderH.UpdateStatus)

	// WebSocket
	wsH := handler.NewWSHandler(wsHub, authSvc, convSvc)
	app.Get("/ws", wsH.Upgrade)

	// Start hub
	go wsHub.Run()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Printf("SewConnect backend running on :%s (%s)", cfg.Port, cfg.Env)

	<-quit
	log.Println("Shutting down...")
	_ = app.ShutdownWithTimeout(5 * time.Second)
	sessions.CloseAll()
	wsHub.Shutdown()
	log.Println("Server stopped")
}
