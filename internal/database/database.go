package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DriverName は modernc.org/sqlite が登録するドライバー名です。
const DriverName = "sqlite"

// length(title) は NUL 文字で打ち切られるため、CHECK はバイト長で行う。
// 文字数 (1〜255) の検証は repositories.ValidateTitle が担当し、1020 は 255文字 x UTF-8 最大4バイト。
const createTasksTableSQL = `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title VARCHAR(255) NOT NULL CHECK (length(CAST(title AS BLOB)) BETWEEN 1 AND 1020),
		completed BOOLEAN NOT NULL DEFAULT FALSE
	);`

// GetDSN はファイルパスから SQLite 接続文字列 (DSN) を構築します。
func GetDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

// Open はデータベース接続を初期化し、疎通確認まで行います。
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, GetDSN(path))
	if err != nil {
		return nil, fmt.Errorf("could not open database connection: %w", err)
	}
	// SQLite は書き込みを直列化するため、接続は1本に絞る
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}
	return db, nil
}

// Migrate は tasks テーブルを作成します。既に存在する場合は何もしません。
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createTasksTableSQL); err != nil {
		return fmt.Errorf("could not create tasks table: %w", err)
	}
	return nil
}
