package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"tonpoints/internal/api"
	"tonpoints/internal/middleware"
	"tonpoints/internal/notifier"
	"tonpoints/internal/repository"
	"tonpoints/internal/service"
	"tonpoints/pkg/auth"
	"tonpoints/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	var rewardNotifier service.Notifier = notifier.Noop{}
	if cfg.TelegramAuth.TelegramBotToken != "" && !cfg.TelegramAuth.DebugMode {
		tn, err := notifier.NewTelegram(cfg.TelegramAuth.TelegramBotToken)
		if err != nil {
			zapLogger.Fatal("Failed to initialize notifier", zap.Error(err))
		}
		rewardNotifier = tn
	}

	rewardCfg := cfg.Rewards.RewardConfig()

	userService := service.NewUserService(repo)
	adService := service.NewAdService(repo, rewardCfg, rewardNotifier)
	poolService := service.NewPoolService(repo, rewardCfg)
	promoService := service.NewPromoService(repo, rewardNotifier)

	if err := poolService.StartScheduler(); err != nil {
		zapLogger.Fatal("Failed to start pool scheduler", zap.Error(err))
	}
	defer poolService.StopScheduler()

	telegramAuth := auth.NewTelegramAuth(cfg.TelegramAuth.TelegramBotToken, cfg.TelegramAuth.DebugMode)
	adminAuth := middleware.NewAdminAuth(cfg.Admin.User, cfg.Admin.Password)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	a := router.Group("/api/v1")
	api.NewUserRoutes(a, userService, telegramAuth)
	api.NewAdRoutes(a, adService, telegramAuth)
	api.NewPoolRoutes(a, poolService, telegramAuth)
	api.NewPromoRoutes(a, promoService, telegramAuth)
	api.NewAdminRoutes(a, userService, poolService, promoService, adminAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
