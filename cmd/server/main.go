package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/circuit/internal/config"
	"github.com/sujalbistaa/circuit/internal/db"
	"github.com/sujalbistaa/circuit/internal/draft"
	routes "github.com/sujalbistaa/circuit/internal/http"
	"github.com/sujalbistaa/circuit/internal/metrics"
)

func main() {
	// 1. Load configuration (flags, .env, environment)
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logFile, _ := config.InitLogging(cfg.LogFile)
	if logFile != nil {
		defer logFile.Close()
	}

	// 2. Initialize Database
	database, err := db.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 3. Run Migrations
	log.Println("Running database migrations...")
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations complete.")

	// 4. Draft cache: Redis when configured, process memory otherwise
	var cache draft.Cache
	if cfg.RedisURL != "" {
		rdb, err := db.InitRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		cache = draft.NewRedisCache(rdb, cfg.DraftTTL)
	} else {
		log.Println("REDIS_URL not set, drafts are kept in memory")
		cache = draft.NewMemoryCache(cfg.DraftTTL)
	}

	// 5. Initialize Gin Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = config.LogWriter
	router := gin.New()
	router.Use(gin.Logger())

	stop := make(chan struct{})
	env := routes.NewEnv(database, cache, metrics.NewMetricService(), cfg)
	routes.SetupRoutes(router, env, cfg, stop)

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server exiting")
}
