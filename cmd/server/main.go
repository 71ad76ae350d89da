package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Abdullahi2202/wealthpay/internal/admin"
	"github.com/Abdullahi2202/wealthpay/internal/alerts"
	"github.com/Abdullahi2202/wealthpay/internal/audit"
	"github.com/Abdullahi2202/wealthpay/internal/auth"
	"github.com/Abdullahi2202/wealthpay/internal/db"
	mware "github.com/Abdullahi2202/wealthpay/internal/middleware"
	"github.com/Abdullahi2202/wealthpay/internal/settlement"
	"github.com/Abdullahi2202/wealthpay/internal/user"
	"github.com/Abdullahi2202/wealthpay/internal/wallet"
)

func main() {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	// Init subsystems
	db.Init()
	alerts.Init()
	defer alerts.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Settlement stack: repository over the shared pool, notifier backed by
	// the in-app notifications table plus the email queue.
	repo := settlement.NewPostgresRepository(db.Conn)
	notifier := alerts.NewSettlementNotifier()
	settleSvc := settlement.NewService(repo, notifier, logger)

	recorder := audit.NewRecorder(db.Conn)
	feed := admin.NewFeed()
	executor := admin.NewExecutor(settleSvc, recorder, db.Conn, feed)
	adminH := admin.NewHandler(executor, recorder)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health and readiness
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "wealthpay"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	e.GET("/user/:id/profile", user.GetPublicProfile)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	api.PATCH("/user/profile", user.UpdateProfile)
	api.POST("/user/kyc", user.SubmitKYC)

	api.GET("/wallet/balance", wallet.Balance)
	api.GET("/wallet/transactions", wallet.GetUserTransactions)
	api.POST("/wallet/topup", wallet.TopupInit)
	api.POST("/wallet/topup/confirm", wallet.ConfirmTopup)
	api.POST("/wallet/send", wallet.Send)

	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.POST("/transactions/:id/approve", adminH.ApproveTransaction)
	adminGroup.POST("/transactions/:id/reject", adminH.RejectTransaction)
	adminGroup.POST("/commands", adminH.ExecuteCommand)

	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.GET("/wallets", admin.ListWallets)
	adminGroup.GET("/transactions", admin.ListTransactions)
	adminGroup.GET("/transactions/user/:id", admin.ListUserTransactions)
	adminGroup.GET("/transfers/pending", admin.ListPendingTransfers)
	adminGroup.GET("/topups/pending", admin.ListPendingTopups)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/activity", adminH.ListActivity)
	adminGroup.GET("/feed", feed.Stream)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
