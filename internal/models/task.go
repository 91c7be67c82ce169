// Package modelsはTaskを定義します。
package models

// タイトルの文字数制約 (tasks.title VARCHAR(255))
const (
	TitleMinLength = 1
	TitleMaxLength = 255
)

// Task は tasks テーブルの1行を表します。
type Task struct {
	ID        int    `json:"id"`        // 主キー (自動採番)
	Title     string `json:"title"`     // タスクのタイトル
	Completed bool   `json:"completed"` // 完了状態
}

// TaskCreateRequest は POST /api/tasks のリクエストボディです。
// completed は受け付けず、作成時は常に false になります。
type TaskCreateRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

// TaskUpdateRequest は PUT /api/tasks/:id のリクエストボディです。
// 💡 bool のゼロ値 false を「未指定」と区別するためポインタにしています。
type TaskUpdateRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// MessageResponse は削除成功時などのメッセージレスポンスです。
type MessageResponse struct {
	Message string `json:"message"`
}
