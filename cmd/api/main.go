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
	"github.com/yourusername/assessment-api/internal/config"
	"github.com/yourusername/assessment-api/internal/domain/repository"
	"github.com/yourusername/assessment-api/internal/handler"
	"github.com/yourusername/assessment-api/internal/middleware"
	"github.com/yourusername/assessment-api/internal/repository/jsonfile"
	redisRepo "github.com/yourusername/assessment-api/internal/repository/redis"
	"github.com/yourusername/assessment-api/internal/service"
	ws "github.com/yourusername/assessment-api/internal/websocket"
	"github.com/yourusername/assessment-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	// Контекст для фоновых горутин (хаб, очистка rate limiter)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Файловое хранилище: создаем недостающие коллекции
	store := jsonfile.NewStore(cfg.Storage.DataDir, jsonfile.Options{
		WriteRetries:         uint(cfg.Storage.WriteRetries),
		RetryInitialInterval: cfg.Storage.RetryInitialInterval(),
	})
	if err := store.Bootstrap(cfg.Storage.QuestionSeed); err != nil {
		log.Printf("Failed to bootstrap storage: %v", err)
		os.Exit(1)
	}

	userRepo := jsonfile.NewUserRepo(store.Users)
	questionRepo := jsonfile.NewQuestionRepo(store.Questions)
	submissionRepo := jsonfile.NewSubmissionRepo(store.Submissions)

	// Redis необязателен: без него кеш отключен, rate limit работает в памяти
	var cacheRepo repository.CacheRepository
	var limiter middleware.Limiter
	if cfg.Redis.Enabled {
		redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Printf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		repo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
		if err != nil {
			log.Printf("Failed to create cache repository: %v", err)
			os.Exit(1)
		}
		cacheRepo = repo
		limiter = middleware.NewRateLimiter(redisClient)
	} else {
		limiter = middleware.NewMemoryRateLimiter(ctx, 10*cfg.RateLimit.LoginWindow())
		log.Println("Redis отключен, используем rate limit в памяти процесса")
	}

	// Живая лента администратора
	var wsHub *ws.Hub
	var wsManager *ws.Manager
	var broadcaster service.EventBroadcaster
	if cfg.WebSocket.Enabled {
		wsHub = ws.NewHub()
		go wsHub.Run(ctx)
		wsManager = ws.NewManager(wsHub)
		broadcaster = wsManager
	}

	// Квитанции по email
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.ResendAPIKey != "" {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to init email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
	}

	// Инициализируем сервисы
	userService := service.NewUserService(userRepo, broadcaster)
	questionService := service.NewQuestionService(questionRepo, cacheRepo, cfg.Redis.QuestionsTTL())
	submissionService := service.NewSubmissionService(submissionRepo, emailService, broadcaster)

	// Инициализируем обработчики
	deps := handler.RouterDeps{
		Auth:           handler.NewAuthHandler(userService),
		Assessment:     handler.NewAssessmentHandler(questionService, submissionService),
		Admin:          handler.NewAdminHandler(userService, submissionService, questionService),
		Identity:       userService,
		Limiter:        limiter,
		LoginRateLimit: middleware.LoginRateLimitConfig(cfg.RateLimit.LoginMaxRequests, cfg.RateLimit.LoginWindow()),
		AllowOrigins:   cfg.CORS.AllowOrigins,
		Debug:          !isProduction,
	}
	if wsHub != nil {
		deps.WS = handler.NewWSHandler(wsHub, wsManager, cfg.CORS.AllowOrigins, cfg.WebSocket.ClientSendBuffer)
	}
	router := handler.NewRouter(deps)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Останавливаем хаб и фоновые горутины после HTTP сервера
	cancel()

	log.Println("Server exited properly")
}
