package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-order-app/codegen"
	"github.com/yeremiapane/table-order-app/config"
	"github.com/yeremiapane/table-order-app/controllers"
	"github.com/yeremiapane/table-order-app/database"
	"github.com/yeremiapane/table-order-app/kds"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/router"
	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := config.InitDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	defer config.CloseDB(db)

	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}

	store := repository.NewStore(db)

	if cfg.SeedFile != "" {
		seed, err := config.LoadSeed(cfg.SeedFile)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to load seed: %v", err)
		}
		if err := seed.Apply(context.Background(), store); err != nil {
			utils.ErrorLogger.Fatalf("Failed to apply seed: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Hub KDS: satu goroutine memproses semua event perubahan
	hub := kds.NewHub(store.Orders().ListActive)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		bridge := kds.NewRedisBridge(rdb, cfg.RedisChannel, codegen.NewID())
		hub.AddSink(bridge)
		go func() {
			if err := bridge.Listen(ctx, hub); err != nil {
				utils.ErrorLogger.Printf("Redis bridge stopped: %v", err)
			}
		}()
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink := kds.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer sink.Close()
		hub.AddSink(sink)
	}
	go hub.Run(ctx)

	engine := services.NewOrderEngine(store, codegen.Default, hub, services.EngineOptions{
		JoinCodeMaxAttempts: cfg.JoinCodeMaxAttempts,
	})
	tables := services.NewTableRegistry(store, hub)
	menu := services.NewMenuCatalog(store, hub, cfg.MenuCategories)

	// Perbaiki status kunci meja saat start, lalu berkala
	if report, err := engine.Reconcile(ctx); err != nil {
		utils.ErrorLogger.Printf("Startup reconcile failed: %v", err)
	} else if len(report.Repairs) > 0 {
		utils.InfoLogger.Printf("Startup reconcile repaired %d tables", len(report.Repairs))
	}
	if cfg.ReconcileInterval > 0 {
		reconciler := services.NewLockReconciler(engine, cfg.ReconcileInterval)
		reconciler.Start()
		defer reconciler.Stop()
	}

	admin, err := controllers.NewAdminController(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminPasswordHash, []byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid admin credentials: %v", err)
	}

	r := router.SetupRouter(router.Deps{
		Engine:         engine,
		Tables:         tables,
		Menu:           menu,
		Hub:            hub,
		Admin:          admin,
		JWTSecret:      []byte(cfg.JWTSecret),
		CORSOrigin:     cfg.CORSOrigin,
		CurrencySymbol: cfg.CurrencySymbol,
		RateLimit:      cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown error: %v", err)
	}
}
