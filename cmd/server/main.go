package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/internal/bootstrap"
	"github.com/marketgate/backend/internal/infrastructure/database"
	"github.com/marketgate/backend/internal/interfaces/middleware"
	"github.com/marketgate/backend/internal/interfaces/rest"
)

func main() {
	// Load .env when present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("📦 Loaded .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	svcMgr := services.NewServiceManager(db, bootstrap.FlowTemplates())
	log.Println("🔧 Service manager initialized")

	if err := bootstrap.InitializeSystemData(svcMgr); err != nil {
		log.Fatalf("Failed to initialize system data: %v", err)
	}

	router := gin.Default()
	router.Use(middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	authHandler := rest.NewAuthHandler(svcMgr)
	userHandler := rest.NewUserHandler(svcMgr)
	onboardingHandler := rest.NewOnboardingHandler(svcMgr)
	flowHandler := rest.NewFlowHandler(svcMgr)
	progressHandler := rest.NewProgressHandler(svcMgr)
	profileHandler := rest.NewProfileHandler(svcMgr)
	analyticsHandler := rest.NewAnalyticsHandler(svcMgr)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireAdmin := middleware.RequireAdmin()

	api := router.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.POST("/password", requireAuth, authHandler.ChangePassword)
		}

		// Flow runtime routes (all roles)
		flows := api.Group("/flows")
		flows.Use(requireAuth)
		{
			flows.GET("/:name/state", onboardingHandler.GetState)
			flows.POST("/:name/steps", onboardingHandler.SubmitStep)
			flows.POST("/:name/retreat", onboardingHandler.Retreat)
			flows.POST("/:name/jump", onboardingHandler.Jump)
			flows.POST("/:name/edit", onboardingHandler.BackToEditing)
			flows.GET("/:name/recap", onboardingHandler.Recap)
			flows.POST("/:name/complete", onboardingHandler.Complete)
		}

		// Stage progress (own view)
		api.GET("/progress", requireAuth, progressHandler.GetOwn)

		// Tool profiles
		profiles := api.Group("/profiles")
		{
			profiles.POST("", requireAuth, profileHandler.Publish)
			// password-gated public access
			profiles.POST("/:id/access", profileHandler.Access)
		}

		// Admin console
		admin := api.Group("/admin")
		admin.Use(requireAuth, requireAdmin)
		{
			admin.POST("/users", userHandler.Create)

			admin.GET("/flows", flowHandler.List)
			admin.POST("/flows", flowHandler.Create)
			admin.GET("/flows/:name", flowHandler.Get)
			admin.DELETE("/flows/:name", flowHandler.Delete)
			admin.PUT("/flows/:name/sections", flowHandler.SaveSections)
			admin.PUT("/flows/:name/order", flowHandler.Reorder)

			admin.GET("/progress", progressHandler.ListAll)
			admin.PUT("/progress/:userId", progressHandler.SetStatus)
			admin.POST("/progress/:userId/advance", progressHandler.Advance)

			admin.GET("/profiles", profileHandler.List)
			admin.DELETE("/profiles/:id", profileHandler.Delete)

			admin.GET("/analytics/overview", analyticsHandler.Overview)
			admin.POST("/analytics/query", analyticsHandler.Query)
		}
	}

	// Start background maintenance
	go svcMgr.Maintenance.Start()

	log.Println("🚀 MarketGate backend started")
	log.Printf("📍 Server:       http://localhost:%s", port)
	log.Printf("🔐 Auth API:     http://localhost:%s/api/auth", port)
	log.Printf("🧭 Flow API:     http://localhost:%s/api/flows", port)
	log.Printf("💚 Health check: http://localhost:%s/health", port)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	svcMgr.Maintenance.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
