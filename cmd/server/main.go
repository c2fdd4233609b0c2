package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"almoxarife/internal/config"
	"almoxarife/internal/infrastructure/logger"
	"almoxarife/internal/infrastructure/memory"
	"almoxarife/internal/infrastructure/mysql"
	"almoxarife/internal/ledger"
	"almoxarife/internal/notification"
	"almoxarife/internal/order"
	"almoxarife/internal/product"
	"almoxarife/internal/report"
	"almoxarife/internal/seed"
	"almoxarife/internal/server"
	"almoxarife/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("reading .env: %v", err)
	}

	configPath := os.Getenv("ALMOXARIFE_CONFIG")
	if configPath == "" {
		configPath = "internal/config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	backend, db := openBackend(cfg, zapLogger)
	if db != nil {
		defer db.Close()
	}

	emitter := notification.NewEmitter()
	orderModule := order.NewModule(backend, emitter, cfg, zapLogger)

	if cfg.Store.SeedFile != "" {
		f, err := seed.Load(cfg.Store.SeedFile)
		if err != nil {
			zapLogger.Fatal("loading seed file", zap.Error(err))
		}
		if err := seed.Apply(context.Background(), f, backend, orderModule.Transitions, zapLogger); err != nil {
			zapLogger.Fatal("applying seed", zap.Error(err))
		}
	}

	ledgerSvc := ledger.NewService(backend, zapLogger)

	router := server.NewRouter(server.Controllers{
		Products:      product.NewModule(backend, ledgerSvc, zapLogger),
		Orders:        orderModule.Controller,
		Notifications: notification.NewController(notification.NewService(backend, zapLogger), zapLogger),
		Reports:       report.NewController(report.NewService(backend, zapLogger), zapLogger),
	}, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndRun(ctx); err != nil {
		zapLogger.Fatal("server error", zap.Error(err))
	}
}

// openBackend returns the configured store; db is nil for the memory backend.
func openBackend(cfg *config.Config, zapLogger *zap.Logger) (store.Backend, *sql.DB) {
	if cfg.Store.Backend != config.BackendMySQL {
		zapLogger.Info("using in-memory store")
		return memory.New(), nil
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	zapLogger.Info("database connected", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	if cfg.Store.MigrateOnStart {
		if err := mysql.Migrate(context.Background(), db); err != nil {
			zapLogger.Fatal("migrating database", zap.Error(err))
		}
	}

	return mysql.NewStore(db), db
}
