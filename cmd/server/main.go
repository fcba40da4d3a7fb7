package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	ginprometheus "github.com/zsais/go-gin-prometheus"

	"storyforge-server/internal/bot"
	"storyforge-server/internal/config"
	delivery "storyforge-server/internal/delivery/http"
	"storyforge-server/internal/service"
	"storyforge-server/internal/storage"
	"storyforge-server/pkg/ai"
	"storyforge-server/pkg/database"
	"storyforge-server/pkg/pdf"
)

func main() {
	// Инициализация логгера
	initLogger()

	// Загрузка конфигурации (включая .env)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Выбор реализации хранилища: один раз на весь процесс
	store, closeStore, err := initStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer closeStore()

	// Клиент API генерации
	aiClient, err := ai.New(ai.Config{
		APIKey:    cfg.AIAPIKey,
		BaseURL:   cfg.AIBaseURL,
		ModelName: cfg.AIModel,
		Timeout:   cfg.AITimeoutSeconds,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize AI client")
	}

	// Сервисы
	storyService := service.NewStoryService(store, aiClient, pdf.NewExporter())
	authService := service.NewAuthService(store, cfg.JWTSecret, cfg.AccessTokenTTL)

	// HTTP обработчики и маршруты
	handler := delivery.New(storyService, authService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.GetAllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Метрики Prometheus на /metrics
	prom := ginprometheus.NewPrometheus("gin")
	prom.Use(router)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
	}

	// Контекст остановки фоновых частей (бот, уборка сессий)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Телеграм-бот опционален: без токена поднимаем только HTTP API
	if cfg.BotToken != "" {
		storyBot, err := bot.New(bot.Config{
			Token:         cfg.BotToken,
			PollTimeout:   cfg.BotPollTimeoutSeconds,
			SessionTTL:    cfg.BotSessionTTL,
			SweepInterval: cfg.BotSweepInterval,
		}, storyService)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		go storyBot.Run(ctx)
	} else {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	// Запуск сервера в горутине
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("storage", cfg.StorageDriver).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	gracefulShutdown(server, cancel)
}

// initLogger настраивает глобальный логгер
func initLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Caller().Logger()

	// В режиме разработки используем более читаемый вывод
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	}

	logLevel := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		logLevel = lvl
	}
	zerolog.SetGlobalLevel(logLevel)
}

// initStorage выбирает и поднимает реализацию хранилища.
func initStorage(cfg *config.Config) (storage.Storage, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Info().Msg("using in-memory storage implementation")
		return storage.NewMemStorage(), func() {}, nil
	}

	ctx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelConnect()

	db, err := database.New(ctx, database.Config{
		Host:               cfg.DBHost,
		Port:               cfg.DBPort,
		User:               cfg.DBUser,
		Password:           cfg.DBPassword,
		DBName:             cfg.DBName,
		SSLMode:            cfg.DBSSLMode,
		MaxConnections:     cfg.DBMaxConnections,
		MaxConnIdleMinutes: cfg.DBMaxIdleMinutes,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := storage.ApplyMigrations(db.Pool); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Info().Msg("using PostgreSQL storage implementation")
	return storage.NewPostgresStorage(db), db.Close, nil
}

// gracefulShutdown обеспечивает плавное завершение работы сервера
func gracefulShutdown(server *http.Server, cancelBackground context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down server...")

	// Останавливаем бота и фоновую уборку
	cancelBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server stopped gracefully")
}
