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

	"campusbot/internal/api"
	"campusbot/internal/auth"
	"campusbot/internal/config"
	"campusbot/internal/logging"
	"campusbot/internal/redis"
	"campusbot/internal/seed"
	"campusbot/internal/service/assistant"
	"campusbot/internal/service/chatbot"
	"campusbot/internal/storage"
	"campusbot/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load(os.Getenv("CAMPUSBOT_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.BasicConfig.LogLevel, cfg.BasicConfig.Development)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbType := os.Getenv("CAMPUSBOT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	logger.Info("opening database", zap.String("driver", dbType))
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewRedisClient(cfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	assistantService := assistant.NewService(db)
	if path := cfg.Chatbot.SeedFile; path != "" {
		cat, err := seed.LoadFile(path)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, assistantService, cat, logger); err != nil {
			return err
		}
	}
	campus := assistant.NewCachedCampus(assistantService, cfg.Chatbot.CacheSize,
		time.Duration(cfg.Chatbot.CacheTTLSeconds)*time.Second)

	var states chatbot.StateStore = chatbot.NewMemoryStateStore()
	if rdb != nil {
		states = chatbot.NewRedisStateStore(rdb, time.Duration(cfg.Chatbot.StateTTLMinutes)*time.Minute)
	}

	engine := chatbot.NewEngine(campus, assistantService, states, logger, chatbot.Options{
		FallbackThreshold:    cfg.Chatbot.FallbackThreshold,
		KeywordDistance:      cfg.Chatbot.KeywordDistance,
		LocationDistance:     cfg.Chatbot.LocationDistance,
		Locations:            locations(cfg.Chatbot.Locations),
		TransliterationHints: cfg.Chatbot.TransliterationHints,
	})

	workers := worker.NewManager(worker.Config{
		QueueSize:   cfg.BasicConfig.QueueSize,
		IdleTimeout: time.Duration(cfg.BasicConfig.WorkerIdleTimeout) * time.Minute,
		OnRelease: func(ctx context.Context, userID int64) {
			if err := engine.ResetState(ctx, userID); err != nil {
				logger.Warn("reset conversation state", zap.Int64("user_id", userID), zap.Error(err))
			}
		},
	}, logger)
	defer workers.Shutdown()

	var broadcast api.Broadcaster
	if rdb != nil {
		b := worker.NewBroadcaster(rdb, logger)
		err := b.Listen(ctx, func(inv worker.Invalidation) {
			switch inv.Scope {
			case worker.ScopeUser:
				workers.ResetUser(context.Background(), inv.UserID)
			case worker.ScopeCatalogue:
				campus.Invalidate()
			}
		})
		if err != nil {
			return err
		}
		if cfg.Chatbot.SeedFile != "" {
			if err := b.Publish(ctx, worker.Invalidation{Scope: worker.ScopeCatalogue}); err != nil {
				logger.Warn("broadcast catalogue reload", zap.Error(err))
			}
		}
		broadcast = b
	}

	authService := auth.NewService(db, rdb, time.Duration(cfg.BasicConfig.TokenTTLHours)*time.Hour)
	authService.StartTokenJanitor(ctx, auth.DefaultTokenCleanupInterval, logger)
	handlers := api.NewHandler(assistantService, authService, engine, workers, broadcast, logger)

	if !cfg.BasicConfig.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logging.Middleware(logger), gin.Recovery())
	handlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.BasicConfig.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func locations(cfg []config.LocationConfig) []chatbot.Location {
	if len(cfg) == 0 {
		return nil
	}
	out := make([]chatbot.Location, 0, len(cfg))
	for _, l := range cfg {
		out = append(out, chatbot.Location{Name: l.Name, Aliases: l.Aliases})
	}
	return out
}
