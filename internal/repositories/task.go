// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"go-next-tasks/backend/internal/models"
)

var (
	// ErrTaskNotFound は指定IDのタスクが存在しない場合のエラーです。
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTitle はタイトルが空、または255文字を超える場合のエラーです。
	ErrInvalidTitle = errors.New("invalid task title")
)

var validate = validator.New()

// titleRule は models.TaskCreateRequest の binding タグと同じ制約です。
var titleRule = fmt.Sprintf("required,min=%d,max=%d", models.TitleMinLength, models.TitleMaxLength)

// TaskRepository は tasks テーブルへの操作を行うための構造体です。
type TaskRepository struct {
	DB *sql.DB
}

// NewTaskRepository は新しいTaskRepositoryインスタンスを作成します。
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

// ValidateTitle はタイトルの文字数 (バイト数ではなく文字数) を検証します。
func ValidateTitle(title string) error {
	if err := validate.Var(title, titleRule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTitle, err)
	}
	return nil
}

// FindAll はすべてのタスクを挿入順で取得します。0件の場合も nil ではなく空スライスを返します。
func (r *TaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	query := "SELECT id, title, completed FROM tasks ORDER BY id ASC"

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
			return nil, fmt.Errorf("could not scan task: %w", err)
		}
		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// FindByID は指定されたIDのタスクを取得します。
func (r *TaskRepository) FindByID(ctx context.Context, id int) (*models.Task, error) {
	query := "SELECT id, title, completed FROM tasks WHERE id = ?"

	var t models.Task
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Title, &t.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("could not query task: %w", err)
	}

	return &t, nil
}

// Create は新しいタスクを completed=false で挿入し、採番されたIDを含めて返します。
func (r *TaskRepository) Create(ctx context.Context, title string) (*models.Task, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}

	query := "INSERT INTO tasks (title, completed) VALUES (?, ?)"

	result, err := r.DB.ExecContext(ctx, query, title, false)
	if err != nil {
		return nil, fmt.Errorf("could not insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}

	return &models.Task{ID: int(id), Title: title, Completed: false}, nil
}

// Update は指定IDのタスクの completed のみを更新し、更新後のタスクを返します。
func (r *TaskRepository) Update(ctx context.Context, id int, completed bool) (*models.Task, error) {
	query := "UPDATE tasks SET completed = ? WHERE id = ?"

	result, err := r.DB.ExecContext(ctx, query, completed, id)
	if err != nil {
		return nil, fmt.Errorf("could not update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrTaskNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete は指定IDのタスクを削除します。
func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	query := "DELETE FROM tasks WHERE id = ?"

	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("could not delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}
