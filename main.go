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

	"qpgen-server/config"
	"qpgen-server/db"
	"qpgen-server/handlers"
	"qpgen-server/middleware"
	"qpgen-server/paper"
	"qpgen-server/patterns"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Initialize database connection pool
	pool, err := db.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	// Ensure database schema is set up (simple creation for demo)
	if err := db.CreateSchema(pool); err != nil {
		log.Fatalf("Error creating database schema: %v", err)
	}

	// Load exam-pattern presets
	presets, err := patterns.Load(cfg.PatternsFile)
	if err != nil {
		log.Fatalf("Error loading exam patterns: %v", err)
	}
	log.Printf("Loaded %d exam pattern(s) from %s", len(presets.List()), cfg.PatternsFile)

	// Wire up the generation engine. Without an API key the AI path is
	// disabled and every request uses the deterministic fallback engine.
	bankStore := db.NewBankStore(pool)
	paperStore := db.NewPaperStore(pool)
	eventLog := db.NewEventLog(pool)

	var model paper.Generator
	if cfg.Gemini.APIKey != "" {
		gemini, err := paper.NewGeminiGenerator(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Model, float32(cfg.Gemini.Temperature))
		if err != nil {
			log.Fatalf("Error creating Gemini client: %v", err)
		}
		defer gemini.Close()
		model = gemini
		log.Printf("Gemini generation enabled (model %s)", cfg.Gemini.Model)
	} else {
		log.Println("GEMINI.API_KEY not set; AI generation disabled, fallback engine only")
	}

	svc := paper.NewService(bankStore, paperStore, model, eventLog, cfg.Gemini.Timeout)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	authMiddleware := middleware.AuthMiddleware(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer)

	// API Routes (version 1)
	apiV1 := router.Group("/api/v1")
	apiV1.Use(authMiddleware)
	apiV1.Use(middleware.RoleCheckMiddleware([]string{"faculty", "instructor", "admin"}))
	{
		apiV1.POST("/papers/generate", handlers.GeneratePaper(svc, presets))
		apiV1.GET("/papers", handlers.ListPapers(svc))
		apiV1.GET("/papers/:paper_id", handlers.GetPaperDetails(svc))
		apiV1.GET("/patterns", handlers.ListPatterns(presets))
	}

	// Admin routes
	admin := router.Group("/admin")
	admin.Use(authMiddleware)
	admin.Use(middleware.RoleCheckMiddleware([]string{"admin", "instructor"}))
	{
		admin.GET("/generation_events", handlers.AdminGenerationEvents(eventLog))
		admin.GET("/question_usage", handlers.AdminQuestionUsage(bankStore))
	}

	// Start the server
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: router,
	}

	// Goroutine to gracefully shut down the server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("QPGEN Server starting on %s", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server startup error: %v", err)
	}
	log.Println("Server exited gracefully.")
}
