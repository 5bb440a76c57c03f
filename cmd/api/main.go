package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ocastro-backend/internal/analytics"
	"ocastro-backend/internal/auth"
	"ocastro-backend/internal/calendar"
	"ocastro-backend/internal/config"
	"ocastro-backend/internal/db"
	"ocastro-backend/internal/events"
	"ocastro-backend/internal/intent"
	"ocastro-backend/internal/interpreter"
	"ocastro-backend/internal/logging"
	"ocastro-backend/internal/server"
	"ocastro-backend/internal/speech"
	"ocastro-backend/internal/tasks"
	"ocastro-backend/internal/vocabulary"
	"ocastro-backend/internal/voice"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("❌ Failed to load config: ", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.App.Environment)
	if err != nil {
		log.Fatal("❌ Failed to build logger: ", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func openDB(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	if cfg.Database.Driver == "sqlite" {
		return db.OpenSQLite(cfg.Database.SQLitePath)
	}
	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func vocabularyStore(cfg *config.Config, database *db.DB, logger *zap.Logger) (vocabulary.Store, func(), error) {
	var store vocabulary.Store = vocabulary.NewSQLStore(database)
	if cfg.Vocabulary.Backend == "file" {
		store = vocabulary.NewFileStore(cfg.Vocabulary.Dir)
	}
	if cfg.Redis.URL == "" {
		return store, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	return vocabulary.NewCachedStore(store, rdb, cfg.Vocabulary.CacheTTL, logger), func() { rdb.Close() }, nil
}

func loadRules(path string) ([]intent.Rule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return intent.LoadRules(f)
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	database, err := openDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer database.Close()
	logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

	store, closeStore, err := vocabularyStore(cfg, database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger.Named("events"))
	if err != nil {
		return err
	}
	defer publisher.Close()

	loc, err := time.LoadLocation(cfg.Interpreter.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}
	rules, err := loadRules(cfg.Interpreter.RulesFile)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	repo := tasks.NewSQLRepository(database)
	vocab := vocabulary.NewService(store)
	recorder := analytics.NewRecorder(database)
	thresholds := interpreter.Thresholds(cfg.Interpreter.Thresholds)

	interp := interpreter.New(interpreter.Options{
		Tasks:      repo,
		Vocabulary: vocab,
		Rules:      rules,
		Thresholds: &thresholds,
		Location:   loc,
		Logger:     logger,
	})

	voiceHandler := voice.Handler{
		Interpreter:    interp,
		Analytics:      recorder,
		Events:         publisher,
		Logger:         logger.Named("voice"),
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	}
	if cfg.OpenAI.APIKey != "" {
		client := speech.NewOpenAIClient(speech.OpenAIConfig{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			TranscriptionModel: cfg.OpenAI.TranscriptionModel,
			SpeechModel:        cfg.OpenAI.SpeechModel,
			DefaultVoice:       cfg.OpenAI.DefaultVoice,
			Language:           cfg.Speech.Language,
			Timeout:            cfg.Speech.Timeout,
		}, logger)
		voiceHandler.Transcriber = client
		voiceHandler.Synthesizer = client
	} else {
		logger.Warn("OpenAI key not set; voice commands accept text only")
	}

	handler := server.Routes(server.Deps{
		DB:             database,
		Auth:           auth.New([]byte(cfg.JWT.Secret), cfg.Auth.FallbackUserID),
		AuthHandlers:   auth.Handlers{DB: database, Secret: []byte(cfg.JWT.Secret), TTL: cfg.JWT.TTL},
		Tasks:          tasks.Handlers{Repo: repo, Analytics: recorder},
		Calendar:       calendar.Service{Tasks: repo},
		Vocabulary:     vocab,
		Voice:          voiceHandler,
		Analytics:      recorder,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server is running", zap.String("addr", cfg.HTTP.Addr))
		return server.Serve(gctx, srv, cfg.HTTP.MaxConns)
	})
	return g.Wait()
}
