package services

import (
	"context"
	"errors"

	"go-next-tasks/backend/internal/metrics"
	"go-next-tasks/backend/internal/models"
	"go-next-tasks/backend/internal/repositories"
)

// TaskStore は TaskService が利用するデータアクセス操作です。
type TaskStore interface {
	FindAll(ctx context.Context) ([]*models.Task, error)
	Create(ctx context.Context, title string) (*models.Task, error)
	Update(ctx context.Context, id int, completed bool) (*models.Task, error)
	Delete(ctx context.Context, id int) error
}

// TaskService はTask関連の操作を扱い、操作ごとの結果をメトリクスに記録します。
type TaskService struct {
	store   TaskStore
	metrics *metrics.Metrics
}

// NewTaskService は新しいTaskServiceを作成します。m が nil の場合はメトリクスを記録しません。
func NewTaskService(store TaskStore, m *metrics.Metrics) *TaskService {
	return &TaskService{store: store, metrics: m}
}

// GetTasks はすべてのTaskを取得します。
func (s *TaskService) GetTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.store.FindAll(ctx)
	s.record("list", err)
	return tasks, err
}

// CreateTask は新しいTaskを作成します。
func (s *TaskService) CreateTask(ctx context.Context, title string) (*models.Task, error) {
	task, err := s.store.Create(ctx, title)
	s.record("create", err)
	return task, err
}

// UpdateTask はTaskの完了状態を更新します。
func (s *TaskService) UpdateTask(ctx context.Context, id int, completed bool) (*models.Task, error) {
	task, err := s.store.Update(ctx, id, completed)
	s.record("update", err)
	return task, err
}

// DeleteTask はTaskを削除します。
func (s *TaskService) DeleteTask(ctx context.Context, id int) error {
	err := s.store.Delete(ctx, id)
	s.record("delete", err)
	return err
}

func (s *TaskService) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.TaskOperations.WithLabelValues(operation, resultOf(err)).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, repositories.ErrInvalidTitle):
		return metrics.ResultInvalid
	case errors.Is(err, repositories.ErrTaskNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultError
	}
}
