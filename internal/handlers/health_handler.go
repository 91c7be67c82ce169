package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger はデータベース接続の疎通確認を行うインターフェースです (*sql.DB が満たします)。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はデータベース接続の健全性を確認します。
func HealthHandler(db Pinger, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			log.WithFields(logrus.Fields{
				"request_id": c.GetString(RequestIDKey),
				"error":      err.Error(),
			}).Error("DB ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "detail": "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
