// Package routesはroutingを行います。
package routes

import (
	"database/sql"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-next-tasks/backend/internal/config"
	"go-next-tasks/backend/internal/handlers"
	"go-next-tasks/backend/internal/metrics"
	"go-next-tasks/backend/internal/repositories"
	"go-next-tasks/backend/internal/services"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
// m が nil の場合はメトリクスの記録と /metrics を無効にします。
func SetupRouter(db *sql.DB, cfg *config.Config, log *logrus.Logger, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecoveryWithWriter(log.WriterLevel(logrus.ErrorLevel), recoverInternalError))
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	if m != nil {
		r.Use(MetricsMiddleware(m))
	}

	// CORS対策 (Next.js フロントエンドのオリジンのみ許可、リクエストヘッダーは要求されたものを許可)
	r.Use(AllowRequestedHeadersMiddleware(cfg.AllowOrigins))
	r.Use(cors.New(corsConfig(cfg.AllowOrigins)))

	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	// リポジトリ
	taskRepo := repositories.NewTaskRepository(db)

	// サービス
	taskService := services.NewTaskService(taskRepo, m)

	// ハンドラー
	taskHandler := handlers.NewTaskHandler(taskService, log)

	// ルーティング
	r.GET("/api/health", handlers.HealthHandler(db, log))
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/tasks", taskHandler.GetTasksHandler)
		api.POST("/tasks", taskHandler.CreateTaskHandler)
		api.PUT("/tasks/:id", taskHandler.UpdateTaskHandler)
		api.DELETE("/tasks/:id", taskHandler.DeleteTaskHandler)
	}

	return r
}

// recoverInternalError は panic を汎用の500レスポンスに変換します。
func recoverInternalError(c *gin.Context, _ any) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	// Access-Control-Allow-Headers は AllowRequestedHeadersMiddleware が設定する
	config.AllowHeaders = nil
	config.ExposeHeaders = []string{RequestIDHeader}
	config.AllowCredentials = true
	return config
}
