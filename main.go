package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fridgefriend/internal/api"
	"fridgefriend/internal/auth"
	"fridgefriend/internal/config"
	"fridgefriend/internal/inventory"
	"fridgefriend/internal/logger"
	"fridgefriend/internal/redis"
	"fridgefriend/internal/service/ai"
	"fridgefriend/internal/service/donation"
	"fridgefriend/internal/service/recipe"
	"fridgefriend/internal/storage"
	"fridgefriend/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("FRIDGEFRIEND_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl := logger.New(cfg.Log)
	defer zl.Sync()

	dbType := os.Getenv("FRIDGEFRIEND_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	zl.Info("opening database", zap.String("driver", dbType))
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		zl.Fatal("migrate database", zap.Error(err))
	}

	rdb, err := redis.NewRedisClient(cfg)
	if err != nil {
		zl.Fatal("create redis client", zap.Error(err))
	}
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := ai.NewClient(ctx, cfg, zl.Named("ai"))
	if err != nil {
		zl.Fatal("init generation client", zap.Error(err))
	}
	dispatcher := worker.NewDispatcher(client, worker.Config{
		MinWorkers:  cfg.Generation.MinWorkers,
		MaxWorkers:  cfg.Generation.MaxWorkers,
		QueueSize:   cfg.Generation.QueueSize,
		IdleTimeout: time.Duration(cfg.Generation.IdleSeconds) * time.Second,
	}, zl.Named("worker"))
	defer dispatcher.Close()

	ttl := time.Duration(cfg.BasicConfig.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	authService := auth.NewService(db, rdb, ttl, zl.Named("auth"))

	store := inventory.NewStore(db, cfg.BasicConfig.DemoMode, zl.Named("inventory"))
	workflow := recipe.NewWorkflow(store, dispatcher, zl.Named("recipe"), recipe.WithCache(rdb))
	store.OnChange(workflow.InvalidateUser)
	workflow.Listen(ctx)

	handlers := api.NewHandler(api.Options{
		Auth:          authService,
		Inventory:     store,
		Recipes:       workflow,
		Chat:          recipe.NewAssistant(store, dispatcher, zl.Named("chat")),
		Donations:     donation.NewService(db, zl.Named("donation")),
		Jobs:          dispatcher,
		RatePerMinute: cfg.Generation.RatePerMinute,
		Logger:        zl.Named("http"),
	})

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	zl.Info("server listening", zap.String("addr", addr), zap.Bool("demo_mode", cfg.BasicConfig.DemoMode))
	if err := router.Run(addr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
