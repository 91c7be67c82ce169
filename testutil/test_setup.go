package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"go-next-tasks/backend/internal/config"
	"go-next-tasks/backend/internal/database"
	"go-next-tasks/backend/internal/logging"
	"go-next-tasks/backend/internal/metrics"
	"go-next-tasks/backend/internal/models"
	"go-next-tasks/backend/internal/repositories"
	"go-next-tasks/backend/internal/routes"
)

// NewTestDB はテストごとに一時ディレクトリへ SQLite ファイルを作成し、マイグレーション済みの接続を返します。
// 接続はテスト終了時に閉じられます。
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "tasks_test.db"))
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(ctx, db), "Failed to migrate test database")
	return db
}

// TestConfig はテスト用の設定を返します。
func TestConfig() *config.Config {
	return &config.Config{
		Port:            "0",
		AllowOrigins:    []string{"http://localhost:3000", "http://localhost:3001"},
		LogLevel:        logrus.DebugLevel,
		LogFormat:       "json",
		GinMode:         gin.TestMode,
		MetricsEnabled:  true,
		ShutdownTimeout: time.Second,
	}
}

// SetupTestDB はテスト用のデータベースとGinルーターをセットアップします。
func SetupTestDB(t *testing.T) (*sql.DB, *gin.Engine, *repositories.TaskRepository) {
	t.Helper()
	db := NewTestDB(t)
	router := SetupTestRouter(t, db, TestConfig(), io.Discard, metrics.New())
	return db, router, repositories.NewTaskRepository(db)
}

// SetupTestRouter は任意の設定・ログ出力先でルーターを作成します。
func SetupTestRouter(t *testing.T, db *sql.DB, cfg *config.Config, logOut io.Writer, m *metrics.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.NewWithOutput(logOut, cfg.LogLevel, cfg.LogFormat)
	return routes.SetupRouter(db, cfg, log, m)
}

// DoJSON は JSON ボディ付きのリクエストをルーターに送り、レスポンスを返します。body が nil の場合はボディなしです。
func DoJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

// CreateTestTask は API 経由でタスクを作成します。
func CreateTestTask(t *testing.T, router http.Handler, title string) *models.Task {
	t.Helper()
	resp := DoJSON(t, router, http.MethodPost, "/api/tasks", map[string]any{"title": title})
	require.Equal(t, http.StatusOK, resp.Code, "タスク作成に失敗しました: %s", resp.Body.String())

	var created models.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	return &created
}

// ListTasks は API 経由で全タスクを取得します。
func ListTasks(t *testing.T, router http.Handler) []models.Task {
	t.Helper()
	resp := DoJSON(t, router, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var tasks []models.Task
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tasks))
	return tasks
}
