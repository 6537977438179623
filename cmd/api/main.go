package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aniladanir/wa-ai-relay/internal/cache"
	redisCache "github.com/aniladanir/wa-ai-relay/internal/cache/redis"
	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"github.com/aniladanir/wa-ai-relay/internal/gateway"
	httpHandler "github.com/aniladanir/wa-ai-relay/internal/handler/http"
	"github.com/aniladanir/wa-ai-relay/internal/llm"
	"github.com/aniladanir/wa-ai-relay/internal/normalizer"
	"github.com/aniladanir/wa-ai-relay/internal/persistant/postgresql"
	messageRepo "github.com/aniladanir/wa-ai-relay/internal/repository/message"
	"github.com/aniladanir/wa-ai-relay/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	configFile = flag.String("config", "config.json", "config file path")
)

func main() {
	// create root context
	appCtx, appCtxCancel := context.WithCancel(context.Background())
	defer appCtxCancel()

	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(appCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// parse flags
	flag.Parse()

	// load .env into the environment
	if err := LoadDotEnv(); err != nil {
		log.Fatalf("failed to load env file: %v", err)
	}

	// parse config
	config, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	// setup logger
	logger := setupLogger(config)
	slog.SetDefault(logger)
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// initialize external dependencies
	db, rCache, err := initExternalDependencies(notifyCtx, config, logger)
	if err != nil {
		log.Fatalf("failed to initialize external dependencies: %v", err)
	}

	// init message repository; persistence stays off without a database
	var msgRepo messageRepo.Repository
	if db != nil && config.Webhook.PersistTurns {
		// a nil *RedisCache must not end up inside the interface
		var sentCache cache.Cache
		if rCache != nil {
			sentCache = rCache
		}
		msgRepo = messageRepo.NewMessageRepository(db, sentCache)
	}

	// init collaborators
	generator := llm.NewOpenAIGenerator(llm.Config{
		ApiKey:       config.OpenAI.ApiKey,
		BaseURL:      config.OpenAI.ApiURL,
		Model:        config.OpenAI.Model,
		MaxTokens:    config.OpenAI.MaxTokens,
		Temperature:  config.OpenAI.Temperature,
		SystemPrompt: config.OpenAI.SystemPrompt,
		Timeout:      config.OpenAITimeout(),
	}, logger.With(slog.String("component", "replyGenerator")))

	dispatcher, err := gateway.NewZApiClient(gateway.Config{
		BaseURL:     config.ZApi.BaseUrl,
		InstanceID:  config.ZApi.InstanceID,
		Token:       config.ZApi.Token,
		ClientToken: config.ZApi.ClientToken,
		Timeout:     config.ZApiTimeout(),
		MaxAttempts: config.ZApi.MaxRetry,
	}, logger.With(slog.String("component", "dispatcher")))
	if err != nil {
		log.Fatalf("failed to initiate gateway client: %v", err)
	}

	// init relay service
	relay, err := service.NewRelay(
		normalizer.New(config.Webhook.AcceptedTypes...),
		generator,
		dispatcher,
		msgRepo,
		logger.With(slog.String("component", "relay")),
		config.Webhook.FallbackReply,
	)
	if err != nil {
		log.Fatalf("failed to initiate relay service: %v", err)
	}

	// init http handler
	apiHandler := httpHandler.NewHttpHandler(
		fmt.Sprintf(":%d", config.HttpPort),
		relay,
		logger.With(slog.String("component", "http")),
		httpHandler.CorsOptions{
			AllowedOrigins:   config.Cors.AllowedOrigins,
			AllowedMethods:   config.Cors.AllowedMethods,
			AllowedHeaders:   config.Cors.AllowedHeaders,
			AllowCredentials: config.Cors.AllowCredentials,
		},
	)

	logger.Info("starting whatsapp ai relay",
		slog.String("env", config.Env),
		slog.Int("port", config.HttpPort),
		slog.Bool("persistence", relay.PersistenceEnabled()),
		slog.Bool("cache", rCache != nil),
		slog.String("model", config.OpenAI.Model))

	wg := sync.WaitGroup{}
	// run http handler
	wg.Go(func() {
		if err := apiHandler.Run(); err != nil {
			logger.Error("http server encountered with an error and closed", "error", err.Error())
		}
		// cancel app context if http handler fails
		appCtxCancel()
	})

	// graceful shutdown
	wg.Go(func() {
		<-notifyCtx.Done()
		logger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		apiHandler.Shutdown(shutDownCtx)
		if rCache != nil {
			rCache.Close()
		}
		if db != nil {
			postgresql.Close(db)
		}
	})

	wg.Wait()
	os.Exit(0)
}

func setupLogger(config *Config) *slog.Logger {
	if config.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// initExternalDependencies connects the optional database and cache. Either is
// nil when its address is not configured.
func initExternalDependencies(ctx context.Context, config *Config, logger *slog.Logger) (db *gorm.DB, rCache *redisCache.RedisCache, err error) {
	if config.DbConnString != "" {
		logLevel := gormLogger.Info
		if config.IsProduction() {
			logLevel = gormLogger.Warn
		}

		// initialize database
		db, err = postgresql.Initialize(config.DbConnString, postgresql.Options{
			MaxOpenConns: config.DbMaxOpenConns,
			MaxIdleConns: config.DbMaxOpenConns / 2,
			LogLevel:     logLevel,
		}, []any{&domain.ConversationTurn{}})
		if err != nil {
			return
		}
	} else {
		logger.Warn("DATABASE_URL not set, conversation turns will not be stored")
	}

	if config.RedisAddr != "" {
		// initialize cache
		rCache, err = redisCache.NewRedisCache(ctx, redisCache.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
	}

	return
}
