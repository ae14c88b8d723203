package handler

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/assessment-api/internal/middleware"
)

// RouterDeps содержит все, что нужно для сборки маршрутов
type RouterDeps struct {
	Auth       *AuthHandler
	Assessment *AssessmentHandler
	Admin      *AdminHandler
	// WS может быть nil, если живая лента отключена
	WS *WSHandler

	Identity       middleware.Authenticator
	Limiter        middleware.Limiter
	LoginRateLimit middleware.RateLimitConfig

	AllowOrigins []string
	// Debug включает /api/debug-users и /api/debug-ws
	Debug bool
}

// NewRouter собирает gin-роутер со всеми маршрутами сервиса
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Не доверяем прокси-заголовкам, кроме localhost
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.UserEmailHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(deps.AllowOrigins) == 0 || contains(deps.AllowOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.AllowOrigins
	}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	{
		login := []gin.HandlerFunc{}
		if deps.Limiter != nil {
			login = append(login, deps.Limiter.Limit(deps.LoginRateLimit))
		}
		login = append(login, deps.Auth.Login)
		api.POST("/login", login...)

		api.GET("/questions", middleware.RequireUserEmail(deps.Identity), deps.Assessment.GetQuestions)
		api.POST("/submit", deps.Assessment.Submit)

		api.GET("/users", deps.Admin.ListUsers)
		api.GET("/submissions", deps.Admin.ListSubmissions)
		api.GET("/submissions/export", deps.Admin.ExportSubmissions)

		if deps.Debug {
			api.GET("/debug-users", deps.Admin.DebugUsers)
			if deps.WS != nil {
				api.GET("/debug-ws", deps.WS.Metrics)
			}
		}
	}

	if deps.WS != nil {
		router.GET("/ws/admin", deps.WS.HandleConnection)
	}

	router.GET("/health", Health)

	return router
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
