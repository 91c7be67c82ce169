package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-next-tasks/backend/internal/database"
)

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		portFlag, dbPathFlag, envFile = "", "", ""
	})
}

func TestMigrateCommand_CreatesSchema(t *testing.T) {
	resetFlags(t)
	t.Setenv("LOG_LEVEL", "error")
	path := filepath.Join(t.TempDir(), "cli.db")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--db", path})
	require.NoError(t, cmd.Execute())

	db, err := database.Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'tasks'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "tasks", name)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv("PORT", "8000")
	t.Setenv("DATABASE_PATH", "./from-env.db")

	portFlag = "9999"
	dbPathFlag = "/tmp/from-flag.db"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "/tmp/from-flag.db", cfg.DatabasePath)
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestMigrateCommand_MissingEnvFile(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.db")

	cmd := newRootCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{"migrate", "--db", path, "--env-file", filepath.Join(dir, "missing.env")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not load env file")
	assert.NoFileExists(t, path, "env ファイルの読み込みに失敗した場合はDBを作成しない")
}
