package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/coinarena/backend/internal/admin"
	"github.com/coinarena/backend/internal/api"
	"github.com/coinarena/backend/internal/audit"
	"github.com/coinarena/backend/internal/config"
	"github.com/coinarena/backend/internal/database"
	"github.com/coinarena/backend/internal/ledger"
	"github.com/coinarena/backend/internal/migrations"
	"github.com/coinarena/backend/internal/notify"
	"github.com/coinarena/backend/internal/prize"
	"github.com/coinarena/backend/internal/redemption"
	"github.com/coinarena/backend/internal/redis"
	"github.com/coinarena/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations on start if requested
	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	// Console-editable settings override the environment
	if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
		log.Printf("[CONFIG] Failed to apply runtime config overrides: %v", err)
	}

	// The pool wallet must exist before any transfer can run
	pool, err := ledger.EnsurePool(db, cfg.PoolSeedBalance)
	if err != nil {
		log.Fatalf("Failed to ensure pool wallet: %v", err)
	}
	log.Printf("[LEDGER] Pool wallet %d ready (balance=%d)", pool.ID, pool.Balance)

	// Wire the ledger services
	notifier := notify.New(rdb)
	engine := ledger.NewEngine(db, notifier, cfg.LockTimeoutMS)
	auditor := audit.NewLogger(db)
	queue := redemption.NewQueue(db, engine, auditor, cfg.MinRedeemAmount, cfg.MaxRedeemAmount)
	distributor := prize.NewDistributor(db, engine, auditor)

	// Fan balance events out to WebSocket subscribers
	ws.SetRedisClient(rdb)
	ws.StartLedgerEventSubscriber(context.Background())

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	api.SetupRoutes(router, api.Deps{
		DB:          db,
		Redis:       rdb,
		Config:      cfg,
		Engine:      engine,
		Queue:       queue,
		Distributor: distributor,
		Auditor:     auditor,
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting CoinArena ledger server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
