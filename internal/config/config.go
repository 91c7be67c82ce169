// Package config は環境変数 (.env を含む) からアプリケーション設定を読み込みます。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// デフォルトのCORS許可オリジン (Next.js フロントエンド用)
var defaultAllowOrigins = []string{
	"http://localhost:3000",
	"http://localhost:3001",
}

// Config はサーバー起動に必要な設定値をまとめた構造体です。
type Config struct {
	Port            string
	DatabasePath    string
	AllowOrigins    []string
	LogLevel        logrus.Level
	LogFormat       string
	GinMode         string
	MetricsEnabled  bool
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// Load は .env ファイルを読み込み、環境変数から Config を構築します。
// envFiles を省略した場合はカレントディレクトリの .env を (存在すれば) 読み込みます。
func Load(envFiles ...string) (*Config, error) {
	// デフォルトの .env が無いのは正常 (本番では環境変数を直接渡す)。
	// 明示的に指定されたファイルが無い場合はエラーにする。
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !os.IsNotExist(err) {
			return nil, fmt.Errorf("could not load env file: %w", err)
		}
	}

	cfg := &Config{
		Port:         getEnv("PORT", "8000"),
		DatabasePath: getEnv("DATABASE_PATH", "./tasks.db"),
		AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", strings.Join(defaultAllowOrigins, ","))),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "json")),
		GinMode:      getEnv("GIN_MODE", "release"),
	}

	var err error
	if cfg.LogLevel, err = logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", cfg.LogFormat)
	}
	if cfg.MetricsEnabled, err = strconv.ParseBool(getEnv("METRICS_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "0"), 64); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS %v: must not be negative", cfg.RateLimitRPS)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = defaultAllowOrigins
	}

	return cfg, nil
}

// Addr は http.Server 用のリッスンアドレスを返します。
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
