package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/traffic-law-assistant/internal/api"
	assistantapi "github.com/futig/traffic-law-assistant/internal/api/assistant"
	"github.com/futig/traffic-law-assistant/internal/config"
	"github.com/futig/traffic-law-assistant/internal/pkg/formatter"
	"github.com/futig/traffic-law-assistant/internal/pkg/logger"
	"github.com/futig/traffic-law-assistant/internal/pkg/validator"
	"github.com/futig/traffic-law-assistant/internal/telegram"
	"github.com/futig/traffic-law-assistant/internal/telegram/handlers"
	"github.com/futig/traffic-law-assistant/internal/usecase/assistant"
	"go.uber.org/zap"
)

// Time left to write the response after a request hits its timeout
const writeTimeoutSlack = 5 * time.Second

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	log.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.String("vector_store", cfg.VectorStoreCfg.Backend),
		zap.String("llm_provider", cfg.LLMCfg.Provider),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	usecase, res, err := buildAssistant(cfg, log, cfg.CorpusCfg.AutoIndex)
	if err != nil {
		return nil, err
	}
	go warmup(usecase, log)

	requestValidator := validator.NewValidator(cfg.RAGCfg, cfg.TestCfg)
	formatters := formatter.NewFactory()
	log.Info("Validators and formatters initialized")

	assistantHandler := assistantapi.NewHandler(usecase, formatters, requestValidator)

	router := api.SetupRouter(assistantHandler, api.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, log)
	log.Info("HTTP router configured")

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + writeTimeoutSlack,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:  server,
		closers: res,
		logger:  log,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.TelegramCfg.BotToken == "" {
		return nil, nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	log.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	usecase, res, err := buildAssistant(cfg, log, cfg.CorpusCfg.AutoIndex)
	if err != nil {
		return nil, nil, nil, err
	}
	go warmup(usecase, log)

	bot, err := telegram.NewBot(&cfg.TelegramCfg, telegram.Deps{
		Usecase:      usecase,
		Validator:    validator.NewValidator(cfg.RAGCfg, cfg.TestCfg),
		Formatters:   formatter.NewFactory(),
		MaxQuestions: cfg.TestCfg.MaxQuestions,
		PollInterval: handlers.DefaultPollInterval,
	}, log)
	if err != nil {
		res.Close()
		return nil, nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	log.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, log, res.Close, nil
}

// BuildIndexer wires the assistant for the indexing CLI. The corpus is never
// loaded implicitly.
func BuildIndexer(environment string) (*Indexer, error) {
	cfg, err := config.Load(environment)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	usecase, res, err := buildAssistant(cfg, log, false)
	if err != nil {
		return nil, err
	}

	return &Indexer{
		Usecase:    usecase,
		CorpusPath: cfg.CorpusCfg.Path,
		Logger:     log,
		closers:    res,
	}, nil
}

func warmup(usecase *assistant.Usecase, log *zap.Logger) {
	ctx := logger.Detached(context.Background(), log, "warmup")
	if err := usecase.Warmup(ctx); err != nil {
		log.Warn("Assistant not ready, will retry on first request", zap.Error(err))
		return
	}
	log.Info("Assistant ready")
}
