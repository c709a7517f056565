// main.go
package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sprintprep/database"
	"sprintprep/handlers"
	"sprintprep/handlers/admin"
	"sprintprep/middleware"
	"sprintprep/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	// Initialize database
	database.InitDB()

	// Sync the question bank from files
	log.Println("Syncing question bank...")
	services.LoadQuestionsFromFiles()

	// Initialize the stale-session sweep
	services.InitCleanupService()
	services.GetCleanupService().Start()
	defer func() {
		if svc := services.GetCleanupService(); svc != nil {
			svc.Stop()
		}
	}()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	app.Use(middleware.RateLimitMiddleware())

	// Serve the SPA
	app.Static("/", "./static")

	// API Routes
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.AuthRateLimitMiddleware())
	authGroup.Post("/guest", handlers.GuestLogin)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/register", handlers.Register)

	// User routes
	userGroup := api.Group("/users")
	userGroup.Use(middleware.AuthMiddleware)
	userGroup.Get("/me", handlers.GetCurrentUser)
	userGroup.Put("/me", handlers.UpdateCurrentUser)
	userGroup.Get("/stats", handlers.GetUserStats)

	// Practice routes
	api.Get("/practice/questions", middleware.AuthMiddleware, handlers.GetPracticeQuestions)

	// Sprint session routes; static paths registered before /:id
	sprintGroup := api.Group("/sprint")
	sprintGroup.Use(middleware.AuthMiddleware)
	sprintGroup.Post("/", handlers.CreateSprint)
	sprintGroup.Get("/topics", handlers.GetSprintTopics)
	sprintGroup.Get("/history", handlers.GetHistory)
	sprintGroup.Get("/:id", handlers.GetSprint)
	sprintGroup.Post("/:id/attempt", handlers.RecordAttempt)
	sprintGroup.Put("/:id/skip", handlers.RecordSkip)
	sprintGroup.Put("/:id/complete", handlers.CompleteSprint)
	sprintGroup.Put("/:id/abandon", handlers.AbandonSprint)
	sprintGroup.Put("/:id/timeout", handlers.TimeoutSprint)
	sprintGroup.Get("/:id/summary", handlers.GetSummary)
	sprintGroup.Post("/:id/retry", handlers.RetrySprint)
	sprintGroup.Get("/:id/review", handlers.GetReview)

	// Live sprint clock
	app.Use("/ws/sprint/:id", middleware.WebSocketAuthMiddleware, handlers.SprintClockUpgrade)
	app.Get("/ws/sprint/:id", handlers.SprintClock)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminAuthMiddleware)
	adminGroup.Get("/users", admin.GetUsers)
	adminGroup.Get("/users/:id", admin.GetUser)
	adminGroup.Put("/users/:id", admin.UpdateUser)
	adminGroup.Delete("/users/:id", admin.DeleteUser)
	adminGroup.Get("/questions", admin.GetQuestions)
	adminGroup.Post("/questions", admin.CreateQuestion)
	adminGroup.Put("/questions/:id", admin.UpdateQuestion)
	adminGroup.Put("/questions/:id/live", admin.SetQuestionLive)
	adminGroup.Delete("/questions/:id", admin.DeleteQuestion)
	adminGroup.Post("/cleanup/manual", admin.TriggerCleanup)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🔐 JWT Secret configured: %v", os.Getenv("JWT_SECRET") != "")
	log.Printf("🕐 Live sprint clock available at ws://localhost:%s/ws/sprint/:id", port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	if os.Getenv("APP_ENV") == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
